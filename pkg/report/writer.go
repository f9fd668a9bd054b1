package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hotcrawl/pkg/logger"
)

// timestampLayout names result files by run start time
const timestampLayout = "20060102_150405"

// headerTimeLayout is the human-readable time format inside artifacts
const headerTimeLayout = "2006-01-02 15:04:05"

// Writer places result artifacts in the configured results directory
type Writer struct {
	dir string
	log logger.Logger
}

// NewWriter creates a Writer, creating the results directory if needed
func NewWriter(dir string, log logger.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	return &Writer{
		dir: dir,
		log: log.WithField("component", "report"),
	}, nil
}

// TextPath returns the incremental text result path for a run start time
func (w *Writer) TextPath(start time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("posts_%s.txt", start.Format(timestampLayout)))
}

// MarkdownPath returns the markdown report path for a run start time
func (w *Writer) MarkdownPath(start time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("posts_%s.md", start.Format(timestampLayout)))
}

// CreateText opens the incremental text result and writes its header. The
// file durably records progress as profiles complete, so a crash mid-run
// still leaves the finished portion on disk.
func (w *Writer) CreateText(start time.Time, userCount int) (*TextResult, error) {
	path := w.TextPath(start)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create text result: %w", err)
	}

	header := fmt.Sprintf("# Crawl Results - %s\n# Total users: %d\n# Started at: %s\n\n",
		start.Format(headerTimeLayout), userCount, start.Format(headerTimeLayout))
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write text header: %w", err)
	}

	w.log.InfoWithFields("created text result", map[string]interface{}{
		"path": path,
	})

	return &TextResult{f: f, path: path}, nil
}

// TextResult is the incremental per-profile URL record. Appends are
// serialized and flushed immediately.
type TextResult struct {
	f    *os.File
	path string
	mu   sync.Mutex
}

// Path returns the file location
func (t *TextResult) Path() string {
	return t.path
}

// AppendProfile records one finished profile with its completion counter
func (t *TextResult) AppendProfile(username string, urls []string, completed, total int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "# @%s (%d posts) - [%d/%d]\n", username, len(urls), completed, total)
	for _, url := range urls {
		b.WriteString(url)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := t.f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to append profile results: %w", err)
	}
	return t.f.Sync()
}

// Finalize writes the totals footer and closes the file
func (t *TextResult) Finalize(totalPosts int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	footer := fmt.Sprintf("\n# Completed at: %s\n# Total posts: %d\n",
		time.Now().Format(headerTimeLayout), totalPosts)
	if _, err := t.f.WriteString(footer); err != nil {
		t.f.Close()
		return fmt.Errorf("failed to finalize text result: %w", err)
	}

	return t.f.Close()
}

// Report assembles the markdown document. Sections are appended as
// placeholders in profile order, then replaced in place as content fetches
// complete, so the document's ordering never depends on fetch timing.
type Report struct {
	sections []string
	mu       sync.Mutex
}

// NewReport creates a report with its run header
func NewReport(start time.Time, userCount, postCount int) *Report {
	header := strings.Join([]string{
		"# Crawl Report",
		"",
		fmt.Sprintf("**Crawled at:** %s", start.Format(headerTimeLayout)),
		fmt.Sprintf("**Total users:** %d", userCount),
		fmt.Sprintf("**Total posts:** %d", postCount),
		"",
		"---",
		"",
	}, "\n")

	return &Report{sections: []string{header}}
}

// AddHeading appends a profile heading section
func (r *Report) AddHeading(username string, postCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sections = append(r.sections,
		fmt.Sprintf("\n## Posts by @%s (%d)\n\n---\n", username, postCount))
}

// AddPlaceholder appends a placeholder section and returns its slot for
// later replacement
func (r *Report) AddPlaceholder(index int, url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sections = append(r.sections, PlaceholderSection(index, url))
	return len(r.sections) - 1
}

// ReplaceSection swaps a slot's content in place
func (r *Report) ReplaceSection(slot int, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot < 0 || slot >= len(r.sections) {
		return
	}
	r.sections[slot] = content
}

// Render joins the current sections into the full document
func (r *Report) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return strings.Join(r.sections, "")
}

// WriteFile writes the document atomically via a temp file rename
func (r *Report) WriteFile(path string) error {
	content := r.Render()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize report: %w", err)
	}

	return nil
}
