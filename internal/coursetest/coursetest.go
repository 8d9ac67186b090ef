// Package coursetest runs the course against real browsers. The tests live in
// a regular package so that other harnesses, such as a grid or a CI image,
// can check their browsers with the same lessons.
package coursetest

import (
	"context"
	"errors"
	"strings"
	"testing"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/browser"
	"github.com/wanmail/seleniumcourse/dataset"
	"github.com/wanmail/seleniumcourse/internal/sandbox"
	"github.com/wanmail/seleniumcourse/lessons"
	"github.com/wanmail/seleniumcourse/report"
	"github.com/wanmail/seleniumcourse/runner"
)

type Config struct {
	// Course describes the browser. Base URLs and the screenshot directory
	// are replaced by the harness.
	Course    course.Config
	Data      dataset.Set
	SkipProxy bool
}

// NewSession creates every session of the suite. Harnesses that manage their
// own browsers replace it.
var NewSession runner.SessionFactory = course.NewSession

func runTest(f func(*testing.T, Config), c Config) func(*testing.T) {
	return func(t *testing.T) {
		f(t, c)
	}
}

// withSandbox starts the sandbox for one test and points every site of c
// at it.
func withSandbox(t *testing.T, c Config) (Config, *sandbox.Server) {
	t.Helper()
	var opts []sandbox.Option
	if len(c.Data.Credentials) > 0 {
		opts = append(opts, sandbox.WithCredentials(c.Data.Credentials))
	}
	srv, err := sandbox.Start(opts...)
	if err != nil {
		t.Fatalf("sandbox.Start() returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("srv.Close() returned error: %v", err)
		}
	})
	c.Course.BaseURLs = srv.BaseURLs()
	c.Course.ScreenshotDir = t.TempDir()
	return c, srv
}

func newSession(t *testing.T, c Config) *course.Session {
	t.Helper()
	s, err := NewSession(context.Background(), c.Course, course.WithName(t.Name()))
	if errors.Is(err, course.ErrDriverNotFound) {
		t.Skipf("Skipping: %v", err)
	}
	if err != nil {
		t.Fatalf("NewSession(%+v) returned error: %v", c.Course, err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("s.Close() returned error: %v", err)
		}
	})
	return s
}

// RunSessionTests checks that sessions honour the configuration.
func RunSessionTests(t *testing.T, c Config) {
	t.Run("Capabilities", runTest(testCapabilities, c))
	t.Run("WindowSize", runTest(testWindowSize, c))
	t.Run("Close", runTest(testClose, c))
}

func testCapabilities(t *testing.T, c Config) {
	s := newSession(t, c)
	info, err := browser.BrowserInfo(s.Driver())
	if err != nil {
		t.Fatalf("browser.BrowserInfo() returned error: %v", err)
	}
	if !strings.EqualFold(info.Name, c.Course.Browser) {
		t.Errorf("browser name = %q, want %q", info.Name, c.Course.Browser)
	}
	if info.Version == "" {
		t.Error("browser version is empty")
	}
}

func testWindowSize(t *testing.T, c Config) {
	c.Course.Maximize = false
	c.Course.WindowWidth, c.Course.WindowHeight = 1000, 700
	s := newSession(t, c)
	size, err := browser.NewWindows(s.Driver(), s.Wait()).Size()
	if err != nil {
		t.Fatalf("Size() returned error: %v", err)
	}
	if size.Width != 1000 || size.Height != 700 {
		t.Errorf("window size = %dx%d, want 1000x700", size.Width, size.Height)
	}
}

func testClose(t *testing.T, c Config) {
	s, err := NewSession(context.Background(), c.Course)
	if errors.Is(err, course.ErrDriverNotFound) {
		t.Skipf("Skipping: %v", err)
	}
	if err != nil {
		t.Fatalf("NewSession() returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first Close() returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() returned error: %v", err)
	}
	if _, err := s.Driver().Title(); err == nil {
		t.Error("Title() on a closed session returned no error")
	}
}

// RunLessonTests runs every scenario of the course against the sandbox, one
// subtest per lesson and scenario.
func RunLessonTests(t *testing.T, c Config) {
	c, srv := withSandbox(t, c)
	env := lessons.Env{Data: c.Data}
	if !c.SkipProxy {
		p, err := srv.StartProxy()
		if err != nil {
			t.Fatalf("srv.StartProxy() returned error: %v", err)
		}
		t.Cleanup(func() { p.Close() })
		env.ProxyAddr = p.Addr
	}
	c.Course.IncludeSlow = true

	all := lessons.All(env)
	for _, lesson := range lessons.Levels {
		t.Run(lesson, func(t *testing.T) {
			for _, sc := range all {
				if sc.Lesson == lesson {
					t.Run(sc.Name, runScenario(sc, c.Course))
				}
			}
		})
	}
}

func runScenario(sc runner.Scenario, cfg course.Config) func(*testing.T) {
	return func(t *testing.T) {
		r := runner.New(cfg)
		r.NewSession = NewSession
		res := r.Run(context.Background(), []runner.Scenario{sc}).Results[0]
		switch {
		case res.Status == report.Skipped:
			t.Skip(res.Error)
		case res.Status == report.Failed && strings.Contains(res.Error, course.ErrDriverNotFound.Error()):
			t.Skipf("Skipping: %s", res.Error)
		case res.Status == report.Failed:
			t.Errorf("%s failed after %v: %s", sc.FullName(), res.Duration, res.Error)
		}
	}
}

// RunChromeTests covers what only Chrome offers.
func RunChromeTests(t *testing.T, c Config) {
	t.Run("PerformanceLog", runTest(testPerformanceLog, c))
}

func testPerformanceLog(t *testing.T, c Config) {
	c, srv := withSandbox(t, c)
	s := newSession(t, c)
	u := srv.URL + "/course/form"
	if err := s.Driver().Get(u); err != nil {
		t.Fatalf("Get(%q) returned error: %v", u, err)
	}
	resps, err := browser.NetworkResponses(s.Driver())
	if err != nil {
		t.Fatalf("browser.NetworkResponses() returned error: %v", err)
	}
	for _, r := range resps {
		if r.URL == u {
			if r.Status != 200 {
				t.Errorf("status of %s = %d, want 200", u, r.Status)
			}
			return
		}
	}
	t.Errorf("no response for %s among %d", u, len(resps))
}
