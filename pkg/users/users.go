// Package users manages the line-oriented profile list file.
package users

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/twitterapi"
)

// Store reads and writes the profile list. One username per line; blank
// lines and lines starting with # are ignored on load.
type Store struct {
	path string
	log  logger.Logger
}

// NewStore creates a Store for the given file path
func NewStore(path string, log logger.Logger) *Store {
	return &Store{
		path: path,
		log:  log.WithField("component", "users"),
	}
}

// Load reads the profile list. A missing file is not an error; it loads as
// an empty list with a warning.
func (s *Store) Load() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.WarnWithFields("users file not found", map[string]interface{}{
				"path": s.path,
			})
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	var users []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		users = append(users, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	s.log.DebugWithFields("loaded users", map[string]interface{}{
		"count": len(users),
		"path":  s.path,
	})
	return users, nil
}

// Add appends a username unless it is already present
func (s *Store) Add(username string) error {
	username = twitterapi.SanitizeUsername(username)
	if !twitterapi.IsValidUsername(username) {
		return fmt.Errorf("invalid username: %q", username)
	}

	users, err := s.Load()
	if err != nil {
		return err
	}

	for _, u := range users {
		if u == username {
			s.log.WarnWithFields("user already exists", map[string]interface{}{
				"username": username,
			})
			return nil
		}
	}

	users = append(users, username)
	if err := s.save(users); err != nil {
		return err
	}

	s.log.InfoWithFields("added user", map[string]interface{}{
		"username": username,
	})
	return nil
}

// Remove deletes a username from the list
func (s *Store) Remove(username string) error {
	username = twitterapi.SanitizeUsername(username)

	users, err := s.Load()
	if err != nil {
		return err
	}

	kept := users[:0]
	found := false
	for _, u := range users {
		if u == username {
			found = true
			continue
		}
		kept = append(kept, u)
	}

	if !found {
		s.log.WarnWithFields("user not found", map[string]interface{}{
			"username": username,
		})
		return nil
	}

	if err := s.save(kept); err != nil {
		return err
	}

	s.log.InfoWithFields("removed user", map[string]interface{}{
		"username": username,
	})
	return nil
}

// List returns the current profile list
func (s *Store) List() ([]string, error) {
	return s.Load()
}

// save rewrites the whole file, dropping comments and blank lines
func (s *Store) save(users []string) error {
	var b strings.Builder
	for _, u := range users {
		b.WriteString(u)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(s.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	return nil
}
