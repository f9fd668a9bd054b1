package twitterapi

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// ProfileBaseURL is the public site profiles live under
	ProfileBaseURL = "https://x.com"

	// FxTwitterHost serves the primary read API; post URLs are rewritten to it
	FxTwitterHost = "api.fxtwitter.com"

	// SyndicationBaseURL serves the secondary read API
	SyndicationBaseURL = "https://cdn.syndication.twimg.com"

	// SyndicationEndpoint is the tweet-result endpoint pattern
	SyndicationEndpoint = "/tweet-result"
)

// statusURLPattern matches canonical post URLs on either domain and captures
// the numeric post id
var statusURLPattern = regexp.MustCompile(`(?:x\.com|twitter\.com)/\w+/status(?:es)?/(\d+)`)

// GetProfileURL constructs the public profile URL for a username
func GetProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", ProfileBaseURL, username)
}

// ExtractPostID pulls the numeric post id out of a canonical post URL.
// It returns an empty string when the URL does not match the status shape.
func ExtractPostID(postURL string) string {
	matches := statusURLPattern.FindStringSubmatch(postURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// FxTwitterURL rewrites a post URL's host to the fxtwitter API host,
// preserving the path. Returns an empty string for URLs that do not parse or
// do not point at a recognized domain.
func FxTwitterURL(postURL string) string {
	u, err := url.Parse(postURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	switch host {
	case "x.com", "www.x.com", "twitter.com", "www.twitter.com":
		u.Host = FxTwitterHost
		u.Scheme = "https"
		return u.String()
	default:
		return ""
	}
}

// SyndicationURL constructs the syndication endpoint URL for a post id
func SyndicationURL(baseURL, postID string) string {
	params := url.Values{}
	params.Set("id", postID)
	params.Set("token", "0")

	return fmt.Sprintf("%s%s?%s", baseURL, SyndicationEndpoint, params.Encode())
}

// IsValidUsername checks if a username conforms to the platform's handle rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 15 {
		return false
	}

	// Handles can only contain letters, numbers, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @ and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
