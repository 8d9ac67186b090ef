package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func sampleRun(dir string) *Run {
	r := NewRun("chrome")
	r.Started = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	r.Add(Result{Name: "webdriver_setup", Lesson: "01_basics", Status: Passed, Duration: 1200 * time.Millisecond})
	r.Add(Result{Name: "google_search", Lesson: "04_real_world", Status: Failed, Duration: 3 * time.Second,
		Error: `element not found: name=q: <timeout>`, Screenshot: filepath.Join(dir, "shots", "google_search_20240301_093001.png")})
	r.Add(Result{Name: "proxy", Lesson: "03_advanced", Status: Skipped})
	r.Finished = r.Started.Add(5 * time.Second)
	return r
}

func TestNewRunID(t *testing.T) {
	r := NewRun("firefox")
	if _, err := uuid.Parse(r.ID); err != nil {
		t.Errorf("NewRun().ID = %q is not a UUID: %v", r.ID, err)
	}
	if r.Browser != "firefox" {
		t.Errorf("NewRun().Browser = %q, want firefox", r.Browser)
	}
}

func TestReportsOfTheSameSecondDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	first, second := sampleRun(dir), sampleRun(dir)
	if first.Started != second.Started {
		t.Fatalf("sample runs start at %v and %v, want the same time", first.Started, second.Started)
	}
	for _, write := range []struct {
		desc string
		f    func(*Run, string) (string, error)
	}{
		{"JSON", (*Run).WriteJSON},
		{"HTML", (*Run).WriteHTML},
	} {
		p1, err := write.f(first, dir)
		if err != nil {
			t.Fatalf("%s: first write returned error: %v", write.desc, err)
		}
		p2, err := write.f(second, dir)
		if err != nil {
			t.Fatalf("%s: second write returned error: %v", write.desc, err)
		}
		if p1 == p2 {
			t.Errorf("%s: both runs wrote %q", write.desc, p1)
		}
		for _, p := range []string{p1, p2} {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("%s: report %q missing: %v", write.desc, p, err)
			}
		}
	}
}

func TestSummary(t *testing.T) {
	r := sampleRun(t.TempDir())
	want := Summary{Total: 3, Passed: 1, Failed: 1, Skipped: 1}
	if diff := cmp.Diff(want, r.Summary()); diff != "" {
		t.Errorf("Summary() mismatch (-want +got):\n%s", diff)
	}
	if r.OK() {
		t.Error("OK() = true for a run with a failure")
	}
	if !NewRun("chrome").OK() {
		t.Error("OK() = false for an empty run")
	}
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	r := sampleRun(dir)
	path, err := r.WriteJSON(filepath.Join(dir, "reports"))
	if err != nil {
		t.Fatalf("WriteJSON() returned error: %v", err)
	}
	if got, want := filepath.Base(path), "report_20240301_093000_"+r.ID[:8]+".json"; got != want {
		t.Errorf("WriteJSON() file = %q, want %q", got, want)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		ID      string   `json:"id"`
		Results []Result `json:"results"`
		Summary Summary  `json:"summary"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if got.ID != r.ID || len(got.Results) != 3 || got.Summary.Failed != 1 {
		t.Errorf("decoded report = %+v", got)
	}
	if got.Results[1].Status != Failed {
		t.Errorf("Results[1].Status = %q, want failed", got.Results[1].Status)
	}
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	r := sampleRun(dir)
	path, err := r.WriteHTML(dir)
	if err != nil {
		t.Fatalf("WriteHTML() returned error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(b)
	for _, want := range []string{
		r.ID,
		"3 scenarios",
		"1 failed",
		`<td>webdriver_setup</td>`,
		`href="shots/google_search_20240301_093001.png"`,
		"&lt;timeout&gt;",
		"1.2s",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("HTML report does not contain %q", want)
		}
	}
}

func TestWriteToFileInPlaceOfDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := sampleRun(dir).WriteJSON(blocker)
	if err == nil {
		t.Fatal("WriteJSON() into a regular file returned nil error")
	}
	var pe *os.PathError
	if !errors.As(err, &pe) {
		t.Errorf("WriteJSON() error = %v, want it to wrap *os.PathError", err)
	}
}

func TestPrint(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	sampleRun("/tmp").Print(&buf)
	out := buf.String()
	for _, want := range []string{
		"passed   01_basics/webdriver_setup (1.2s)",
		"failed   04_real_world/google_search (3s)",
		"element not found: name=q",
		"screenshot: /tmp/shots/google_search_20240301_093001.png",
		"3 scenarios: 1 passed, 1 failed, 1 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Print() output missing %q:\n%s", want, out)
		}
	}
}

func TestScreenshotName(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 58, 0, time.UTC)
	tests := []struct {
		desc string
		test string
		want string
	}{
		{"plain", "google_search", "google_search_20241231_235958.png"},
		{"parametrized", "data_driven/Web automation", "data_driven_Web_automation_20241231_235958.png"},
	}
	for _, test := range tests {
		if got := ScreenshotName(test.test, at); got != test.want {
			t.Errorf("%s: ScreenshotName(%q) = %q, want %q", test.desc, test.test, got, test.want)
		}
	}
}
