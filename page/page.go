// Package page provides the base type for page objects.
//
// A page object wraps the locators and actions of one page so that tests talk
// to a stable API instead of raw selectors. Page objects borrow the session's
// WebDriver; the test that created the session keeps ownership and closes it.
//
//	type LoginPage struct{ *page.Base }
//
//	func (p *LoginPage) Login(ctx context.Context, user, pass string) error {
//		if err := p.Type(ctx, by.ID("email"), user); err != nil {
//			return err
//		}
//		...
//	}
package page

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/wait"
)

// DefaultScreenshotDir is where Screenshot writes unless configured.
const DefaultScreenshotDir = "screenshots"

// NotFoundError is returned when an element did not reach the required state
// before the wait expired.
type NotFoundError struct {
	Locator by.Locator
	Err     error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s: %v", e.Locator, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Base implements the operations shared by every page object.
type Base struct {
	wd            selenium.WebDriver
	wait          wait.Wait
	screenshotDir string
}

// Option configures a Base.
type Option func(*Base)

// WithWait replaces the default ten second explicit wait.
func WithWait(w wait.Wait) Option {
	return func(b *Base) { b.wait = w }
}

// WithScreenshotDir sets the directory used by Screenshot.
func WithScreenshotDir(dir string) Option {
	return func(b *Base) { b.screenshotDir = dir }
}

// New returns a Base that borrows wd.
func New(wd selenium.WebDriver, opts ...Option) *Base {
	b := &Base{
		wd:            wd,
		wait:          wait.New(wait.DefaultTimeout),
		screenshotDir: DefaultScreenshotDir,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Driver returns the borrowed WebDriver.
func (b *Base) Driver() selenium.WebDriver { return b.wd }

// Wait returns the explicit wait used by the page.
func (b *Base) Wait() wait.Wait { return b.wait }

// Options returns options that give a derived page object the same settings.
func (b *Base) Options() []Option {
	return []Option{WithWait(b.wait), WithScreenshotDir(b.screenshotDir)}
}

func until[T any](ctx context.Context, b *Base, l by.Locator, cond wait.Condition[T]) (T, error) {
	v, err := wait.Until(ctx, b.wait, b.wd, cond)
	if err != nil {
		var zero T
		return zero, LookupError(l, err)
	}
	return v, nil
}

// LookupError reports a failed wait for l. Only a timeout means the element
// was not found; session, transport and context errors keep their identity.
func LookupError(l by.Locator, err error) error {
	if errors.Is(err, wait.ErrTimeout) {
		return &NotFoundError{Locator: l, Err: err}
	}
	return fmt.Errorf("find %v: %w", l, err)
}

// Open loads url and waits for the document to finish loading.
func (b *Base) Open(ctx context.Context, url string) error {
	glog.V(1).Infof("page: opening %s", url)
	if err := b.wd.Get(url); err != nil {
		return fmt.Errorf("opening %q: %w", url, err)
	}
	return b.WaitForLoad(ctx)
}

// Find waits for an element to be present in the DOM.
func (b *Base) Find(ctx context.Context, l by.Locator) (selenium.WebElement, error) {
	return until(ctx, b, l, wait.PresenceOf(l))
}

// FindAll waits for at least one match and returns every match.
func (b *Base) FindAll(ctx context.Context, l by.Locator) ([]selenium.WebElement, error) {
	return until(ctx, b, l, wait.PresenceOfAll(l))
}

// FindVisible waits for an element to be displayed.
func (b *Base) FindVisible(ctx context.Context, l by.Locator) (selenium.WebElement, error) {
	return until(ctx, b, l, wait.VisibilityOf(l))
}

// Click waits for an element to be clickable and clicks it.
func (b *Base) Click(ctx context.Context, l by.Locator) error {
	el, err := until(ctx, b, l, wait.Clickable(l))
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("clicking %s: %w", l, err)
	}
	return nil
}

// Type waits for an element to be visible, clears it and types text.
func (b *Base) Type(ctx context.Context, l by.Locator, text string) error {
	el, err := b.FindVisible(ctx, l)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return fmt.Errorf("clearing %s: %w", l, err)
	}
	if err := el.SendKeys(text); err != nil {
		return fmt.Errorf("typing into %s: %w", l, err)
	}
	return nil
}

// Submit submits the form that owns the located element.
func (b *Base) Submit(ctx context.Context, l by.Locator) error {
	el, err := b.Find(ctx, l)
	if err != nil {
		return err
	}
	if err := el.Submit(); err != nil {
		return fmt.Errorf("submitting %s: %w", l, err)
	}
	return nil
}

// Text returns the visible text of an element once it is displayed.
func (b *Base) Text(ctx context.Context, l by.Locator) (string, error) {
	el, err := b.FindVisible(ctx, l)
	if err != nil {
		return "", err
	}
	t, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("reading text of %s: %w", l, err)
	}
	return t, nil
}

// Texts returns the text of every match.
func (b *Base) Texts(ctx context.Context, l by.Locator) ([]string, error) {
	els, err := b.FindAll(ctx, l)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			return nil, fmt.Errorf("reading text of %s: %w", l, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// IsVisible reports whether an element becomes visible within the wait. It
// never returns an error: a timeout means false.
func (b *Base) IsVisible(ctx context.Context, l by.Locator) bool {
	_, err := b.FindVisible(ctx, l)
	return err == nil
}

// WaitForLoad waits for document.readyState to be "complete".
func (b *Base) WaitForLoad(ctx context.Context) error {
	if _, err := wait.Until(ctx, b.wait, b.wd, wait.DocumentReady()); err != nil {
		return fmt.Errorf("waiting for page load: %w", err)
	}
	return nil
}

// Title returns the document title.
func (b *Base) Title() (string, error) { return b.wd.Title() }

// URL returns the current URL.
func (b *Base) URL() (string, error) { return b.wd.CurrentURL() }

// Screenshot saves a PNG of the viewport as <dir>/<name>.png and returns its
// path.
func (b *Base) Screenshot(name string) (string, error) {
	img, err := b.wd.Screenshot()
	if err != nil {
		return "", fmt.Errorf("taking screenshot: %w", err)
	}
	if err := os.MkdirAll(b.screenshotDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(b.screenshotDir, name+".png")
	if err := os.WriteFile(path, img, 0644); err != nil {
		return "", err
	}
	glog.Infof("Saved screenshot %q", path)
	return path, nil
}
