// Package wait implements explicit and fluent waits on top of a
// selenium.WebDriver.
//
// A Wait polls a Condition until it reports done, a non-ignored error occurs,
// the timeout elapses or the context is cancelled:
//
//	w := wait.New(10*time.Second, wait.WithInterval(250*time.Millisecond))
//	el, err := wait.Until(ctx, w, wd, wait.Clickable(by.ID("submit")))
//	if errors.Is(err, wait.ErrTimeout) {
//		...
//	}
package wait

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// ErrTimeout is matched by every TimeoutError through errors.Is.
var ErrTimeout = errors.New("wait: timed out")

// TimeoutError reports a condition that did not hold before the deadline.
type TimeoutError struct {
	Message string
	Timeout time.Duration
	// Last is the most recent ignored error returned by the condition, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("wait: timed out after %v", e.Timeout)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return e.Last }

// Wait configures how a condition is polled. The zero value uses
// DefaultTimeout, DefaultInterval and ignores missing and stale elements.
type Wait struct {
	Timeout  time.Duration
	Interval time.Duration
	// Message is added to the TimeoutError.
	Message string
	// Ignore reports whether an error returned by a condition should be
	// treated as "not yet" rather than ending the wait.
	Ignore func(error) bool
}

// Option configures a Wait.
type Option func(*Wait)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Wait) { w.Interval = d }
}

// WithMessage sets the message reported on timeout.
func WithMessage(msg string) Option {
	return func(w *Wait) { w.Message = msg }
}

// Ignoring adds errors, matched with errors.Is, to the ignored set.
func Ignoring(errs ...error) Option {
	return IgnoringFunc(func(err error) bool {
		for _, e := range errs {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	})
}

// IgnoringFunc adds f to the ignored set.
func IgnoringFunc(f func(error) bool) Option {
	return func(w *Wait) {
		prev := w.ignorer()
		w.Ignore = func(err error) bool { return prev(err) || f(err) }
	}
}

// New returns a Wait with the given timeout.
func New(timeout time.Duration, opts ...Option) Wait {
	w := Wait{Timeout: timeout, Interval: DefaultInterval}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

func (w Wait) ignorer() func(error) bool {
	if w.Ignore != nil {
		return w.Ignore
	}
	return func(err error) bool { return IsNoSuchElement(err) || IsStale(err) }
}

func (w Wait) withDefaults() Wait {
	if w.Timeout <= 0 {
		w.Timeout = DefaultTimeout
	}
	if w.Interval <= 0 {
		w.Interval = DefaultInterval
	}
	return w
}

// Condition inspects the browser and reports a value and whether the wait is
// over.
type Condition[T any] func(wd selenium.WebDriver) (T, bool, error)

// Until polls cond until it is done and returns its value. The condition is
// evaluated immediately, then every w.Interval, and once more at the deadline.
func Until[T any](ctx context.Context, w Wait, wd selenium.WebDriver, cond Condition[T]) (T, error) {
	var zero T
	w = w.withDefaults()
	ignore := w.ignorer()
	deadline := time.Now().Add(w.Timeout)

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, ok, err := cond(wd)
		switch {
		case err == nil && ok:
			return v, nil
		case err != nil && !ignore(err):
			return zero, err
		case err != nil:
			last = err
		}
		if glog.V(2) {
			glog.Infof("wait: attempt %d not done (last error: %v)", attempt, last)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, &TimeoutError{Message: w.Message, Timeout: w.Timeout, Last: last}
		}
		sleep := w.Interval
		if sleep > remaining {
			sleep = remaining
		}
		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
}

// UntilNot waits until cond stops reporting done. An ignored error counts as
// not done.
func UntilNot[T any](ctx context.Context, w Wait, wd selenium.WebDriver, cond Condition[T]) error {
	ignore := w.ignorer()
	_, err := Until(ctx, w, wd, func(wd selenium.WebDriver) (struct{}, bool, error) {
		_, ok, err := cond(wd)
		if err != nil && ignore(err) {
			return struct{}{}, true, nil
		}
		return struct{}{}, !ok && err == nil, err
	})
	return err
}

// ForSelenium adapts cond for the driver's own WaitWithTimeout family.
func ForSelenium[T any](cond Condition[T]) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		_, ok, err := cond(wd)
		return ok, err
	}
}

// Implicit sets the driver-side implicit wait applied to every lookup.
func Implicit(wd selenium.WebDriver, d time.Duration) error {
	if err := wd.SetImplicitWaitTimeout(d); err != nil {
		return fmt.Errorf("setting implicit wait to %v: %w", d, err)
	}
	return nil
}

func errorKind(err error) (string, int) {
	var se *selenium.Error
	if errors.As(err, &se) {
		return se.Err, se.LegacyCode
	}
	return "", 0
}

func isKind(err error, kind string, legacy int) bool {
	if err == nil {
		return false
	}
	k, code := errorKind(err)
	if k == kind || (legacy != 0 && code == legacy) {
		return true
	}
	return k == "" && strings.Contains(err.Error(), kind)
}

// IsNoSuchElement reports whether err is a WebDriver "no such element" error.
func IsNoSuchElement(err error) bool { return isKind(err, "no such element", 7) }

// IsStale reports whether err is a WebDriver "stale element reference" error.
func IsStale(err error) bool { return isKind(err, "stale element reference", 10) }

// IsNoAlert reports whether err is a WebDriver "no such alert" error.
func IsNoAlert(err error) bool { return isKind(err, "no such alert", 27) }

// IsNoSuchFrame reports whether err is a WebDriver "no such frame" error.
func IsNoSuchFrame(err error) bool { return isKind(err, "no such frame", 8) }

// IsUnknownCommand reports whether the server does not implement a command,
// as W3C-only drivers do for the legacy mouse and keyboard endpoints.
func IsUnknownCommand(err error) bool { return isKind(err, "unknown command", 9) }
