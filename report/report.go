// Package report records the outcome of a course run and writes it as JSON,
// as a self-contained HTML page and as a console summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one scenario.
type Status string

const (
	Passed  Status = "passed"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// Result is the record of one scenario.
type Result struct {
	Name       string        `json:"name"`
	Lesson     string        `json:"lesson"`
	Status     Status        `json:"status"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	Screenshot string        `json:"screenshot,omitempty"`
}

// Run collects the results of one invocation. Add may be called from several
// goroutines.
type Run struct {
	ID       string    `json:"id"`
	Browser  string    `json:"browser"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Results  []Result  `json:"results"`

	mu sync.Mutex
}

// NewRun starts a run against browser.
func NewRun(browser string) *Run {
	return &Run{ID: uuid.NewString(), Browser: browser, Started: time.Now()}
}

// Add records r.
func (r *Run) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
}

// Finish stamps the end time.
func (r *Run) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = time.Now()
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (r *Run) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaryLocked()
}

// OK reports whether no scenario failed.
func (r *Run) OK() bool { return r.Summary().Failed == 0 }

// fileName is report_<YYYYMMDD_HHMMSS>_<id prefix><ext>, so runs started in
// the same second get different files.
func (r *Run) fileName(ext string) string {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("report_%s_%s%s", r.Started.Format(stampLayout), id, ext)
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// WriteJSON writes the run to dir and returns the file path.
func (r *Run) WriteJSON(dir string) (string, error) {
	r.mu.Lock()
	data, err := json.MarshalIndent(struct {
		*Run
		Summary Summary `json:"summary"`
	}{r, r.summaryLocked()}, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(dir, r.fileName(".json"), data)
}

func (r *Run) summaryLocked() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case Passed:
			s.Passed++
		case Failed:
			s.Failed++
		case Skipped:
			s.Skipped++
		}
	}
	return s
}

const stampLayout = "20060102_150405"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ScreenshotName returns the file name for a screenshot of test taken at t,
// in the form <test>_<YYYYMMDD_HHMMSS>.png.
func ScreenshotName(test string, t time.Time) string {
	return fmt.Sprintf("%s_%s.png", unsafeName.ReplaceAllString(test, "_"), t.Format(stampLayout))
}
