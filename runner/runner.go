// Package runner executes course scenarios one after another, each in a
// fresh browser session, and records one report.Result per scenario.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"runtime/debug"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/schollz/progressbar/v3"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/report"
)

// Scenario is one runnable lesson step.
type Scenario struct {
	Name   string
	Lesson string
	// Slow scenarios only run when Config.IncludeSlow is set.
	Slow bool
	// Configure, when set, adjusts the configuration of this scenario's
	// session only.
	Configure func(*course.Config)
	Run       func(ctx context.Context, s *course.Session) error
}

// FullName is "<lesson>/<name>".
func (s Scenario) FullName() string { return s.Lesson + "/" + s.Name }

// ErrSkip marks a scenario that decided not to run.
var ErrSkip = errors.New("skipped")

// Skip returns an error that records the scenario as skipped with the given
// reason.
func Skip(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSkip, fmt.Sprintf(format, args...))
}

// SessionFactory creates the session for one scenario.
type SessionFactory func(ctx context.Context, cfg course.Config, opts ...course.SessionOption) (*course.Session, error)

// Runner runs scenarios. The zero value is not usable; call New.
type Runner struct {
	Config     course.Config
	NewSession SessionFactory
	// Report receives the results. New runs get a fresh report.Run.
	Report *report.Run
	// Progress, when set, shows a progress bar.
	Progress io.Writer

	now func() time.Time
}

// New returns a Runner that starts real browser sessions.
func New(cfg course.Config) *Runner {
	return &Runner{
		Config:     cfg,
		NewSession: course.NewSession,
		Report:     report.NewRun(cfg.Browser),
		now:        time.Now,
	}
}

// Run executes scenarios in order and returns the report. Every scenario
// produces exactly one result; once ctx is done the remaining ones are
// recorded as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) *report.Run {
	if r.Report == nil {
		r.Report = report.NewRun(r.Config.Browser)
	}
	if r.now == nil {
		r.now = time.Now
	}
	var bar *progressbar.ProgressBar
	if r.Progress != nil {
		bar = progressbar.NewOptions(len(scenarios),
			progressbar.OptionSetWriter(r.Progress),
			progressbar.OptionSetDescription("scenarios"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, sc := range scenarios {
		var res report.Result
		switch {
		case ctx.Err() != nil:
			res = r.skipped(sc, fmt.Sprintf("not run: %v", ctx.Err()))
		case sc.Slow && !r.Config.IncludeSlow:
			res = r.skipped(sc, "slow scenario; enable slow scenarios to run it")
		default:
			res = r.runOne(ctx, sc)
		}
		r.Report.Add(res)
		if bar != nil {
			bar.Describe(sc.FullName())
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	r.Report.Finish()
	return r.Report
}

func (r *Runner) skipped(sc Scenario, reason string) report.Result {
	glog.Infof("--- SKIP: %s: %s", sc.FullName(), reason)
	return report.Result{
		Name:    sc.Name,
		Lesson:  sc.Lesson,
		Status:  report.Skipped,
		Started: r.now(),
		Error:   reason,
	}
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) report.Result {
	name := sc.FullName()
	res := report.Result{Name: sc.Name, Lesson: sc.Lesson, Started: r.now()}
	glog.Infof("=== RUN   %s", name)

	cfg := r.Config
	cfg.BaseURLs = maps.Clone(r.Config.BaseURLs)
	cfg.ExtensionDirs = append([]string(nil), r.Config.ExtensionDirs...)
	if sc.Configure != nil {
		sc.Configure(&cfg)
	}

	s, err := r.NewSession(ctx, cfg, course.WithName(name))
	if err != nil {
		res.Status = report.Failed
		res.Error = fmt.Sprintf("starting session: %v", err)
		res.Duration = r.now().Sub(res.Started)
		glog.Errorf("--- FAIL: %s: %s", name, res.Error)
		return res
	}
	defer func() {
		if err := s.Close(); err != nil {
			glog.Warningf("%s: closing session: %v", name, err)
		}
	}()

	err = call(ctx, sc, s)
	res.Duration = r.now().Sub(res.Started)
	switch {
	case err == nil:
		res.Status = report.Passed
		glog.Infof("--- PASS: %s (%v)", name, res.Duration)
	case errors.Is(err, ErrSkip):
		res.Status = report.Skipped
		res.Error = err.Error()
		glog.Infof("--- SKIP: %s: %v", name, err)
	default:
		res.Status = report.Failed
		res.Error = err.Error()
		glog.Errorf("--- FAIL: %s (%v): %v", name, res.Duration, err)
		if cfg.TakeScreenshots {
			if p, err := s.Screenshot(name); err != nil {
				glog.Warningf("%s: screenshot: %v", name, err)
			} else {
				res.Screenshot = p
			}
		}
	}
	return res
}

// call runs the scenario and turns a panic into an error.
func call(ctx context.Context, sc Scenario, s *course.Session) (err error) {
	defer func() {
		if p := recover(); p != nil {
			glog.Errorf("%s panicked: %v\n%s", sc.FullName(), p, debug.Stack())
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if sc.Run == nil {
		return errors.New("scenario has no Run function")
	}
	return sc.Run(ctx, s)
}

// Parametrize expands tmpl into one scenario per value, named
// "<tmpl.Name>/<value>".
func Parametrize[T any](tmpl Scenario, values []T, run func(ctx context.Context, s *course.Session, v T) error) []Scenario {
	out := make([]Scenario, 0, len(values))
	for _, v := range values {
		sc := tmpl
		sc.Name = tmpl.Name + "/" + fmt.Sprint(v)
		sc.Run = func(ctx context.Context, s *course.Session) error {
			return run(ctx, s, v)
		}
		out = append(out, sc)
	}
	return out
}

// Select returns the scenarios matching any pattern, in their original
// order. A pattern matches a full name, a scenario name, a lesson prefix
// ("02" or "02_intermediate") or, as a glob, a full name
// ("03_advanced/data_driven/*"). No patterns select everything.
func Select(scenarios []Scenario, patterns []string) ([]Scenario, error) {
	if len(patterns) == 0 {
		return scenarios, nil
	}
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	var out []Scenario
	for _, sc := range scenarios {
		for _, p := range patterns {
			if matches(sc, p) {
				out = append(out, sc)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario matches %s", strings.Join(patterns, ", "))
	}
	return out, nil
}

func matches(sc Scenario, pattern string) bool {
	full := sc.FullName()
	switch {
	case pattern == full, pattern == sc.Name:
		return true
	case strings.HasPrefix(sc.Lesson, pattern):
		return true
	case strings.HasPrefix(full, pattern+"/"):
		return true
	}
	if ok, _ := path.Match(pattern, full); ok {
		return true
	}
	ok, _ := path.Match(pattern, sc.Name)
	return ok
}
