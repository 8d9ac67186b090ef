package course

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/browser"
	"github.com/wanmail/seleniumcourse/page"
	"github.com/wanmail/seleniumcourse/report"
	"github.com/wanmail/seleniumcourse/wait"
)

var newRemote = selenium.NewRemote

// SessionOption configures NewSession.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	caps []func(selenium.Capabilities)
	name string
}

// WithCapabilities lets the caller adjust the capabilities before the
// session is created.
func WithCapabilities(f func(selenium.Capabilities)) SessionOption {
	return func(o *sessionOptions) { o.caps = append(o.caps, f) }
}

// WithName names the session. Remote grids such as Sauce Labs show it.
func WithName(name string) SessionOption {
	return func(o *sessionOptions) { o.name = name }
}

// Session owns one browser and everything started to drive it. Page objects
// borrow Driver(); whoever called NewSession must call Close.
type Session struct {
	cfg   Config
	wd    selenium.WebDriver
	local *localService
	now   func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// NewSession starts a browser as described by cfg. A local driver service is
// started unless cfg names a remote end. Anything started before a failure
// is torn down again.
func NewSession(ctx context.Context, cfg Config, opts ...SessionOption) (*Session, error) {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	caps, err := Capabilities(cfg)
	if err != nil {
		return nil, err
	}
	if o.name != "" && cfg.SauceUser != "" {
		caps["name"] = o.name
	}
	for _, f := range o.caps {
		f(caps)
	}

	s := &Session{cfg: cfg, now: time.Now}
	var addr string
	switch {
	case cfg.SauceUser != "":
		addr = sauceURL(cfg.SauceUser, cfg.SauceKey)
	case cfg.RemoteURL != "":
		addr = cfg.RemoteURL
	default:
		l, err := startLocal(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.local = l
		addr = l.addr
	}
	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, err
	}

	wd, err := newRemote(caps, addr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating %s session at %s: %w", cfg.Browser, redact(addr), err)
	}
	s.wd = wd
	if err := s.setup(); err != nil {
		s.Close()
		return nil, err
	}
	glog.V(1).Infof("session: %s ready at %s", cfg.Browser, redact(addr))
	return s, nil
}

// Attach wraps a WebDriver session that was created elsewhere, for example
// one shared by a grid. No service is started; Close quits wd.
func Attach(cfg Config, wd selenium.WebDriver) *Session {
	return &Session{cfg: cfg, wd: wd, now: time.Now}
}

func sauceURL(user, key string) string {
	u := url.URL{
		Scheme: "https",
		User:   url.UserPassword(user, key),
		Host:   "ondemand.saucelabs.com",
		Path:   "/wd/hub",
	}
	return u.String()
}

// redact hides credentials embedded in a remote URL.
func redact(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.User == nil {
		return addr
	}
	return u.Redacted()
}

func (s *Session) setup() error {
	if err := wait.Implicit(s.wd, s.cfg.ImplicitWait); err != nil {
		return err
	}
	if s.cfg.PageLoadTimeout > 0 {
		if err := s.wd.SetPageLoadTimeout(s.cfg.PageLoadTimeout); err != nil {
			return fmt.Errorf("setting page load timeout: %w", err)
		}
	}
	if err := s.sizeWindow(); err != nil {
		return err
	}
	// Chrome rejects the override on some pages; the session is still usable.
	if err := browser.HideWebDriver(s.wd); err != nil {
		glog.Warningf("Could not hide navigator.webdriver: %v", err)
	}
	return nil
}

func (s *Session) sizeWindow() error {
	w, h := s.cfg.WindowWidth, s.cfg.WindowHeight
	if w == 0 && s.local != nil && s.local.display != "" {
		var err error
		if w, h, err = displaySize(s.local.display); err != nil {
			glog.Warningf("Could not read frame buffer geometry: %v", err)
			w, h = 0, 0
		}
	}
	switch {
	case w > 0:
		if err := s.wd.ResizeWindow("", w, h); err != nil {
			return fmt.Errorf("resizing window to %dx%d: %w", w, h, err)
		}
	case s.cfg.Maximize && !s.cfg.Headless:
		// Without a window manager there is nothing to maximize into.
		if err := s.wd.MaximizeWindow(""); err != nil {
			glog.Warningf("Could not maximize window: %v", err)
		}
	}
	return nil
}

// Driver returns the session's WebDriver.
func (s *Session) Driver() selenium.WebDriver { return s.wd }

// Config returns the configuration the session was started with.
func (s *Session) Config() Config { return s.cfg }

// Wait returns the configured explicit wait.
func (s *Session) Wait() wait.Wait {
	return wait.New(s.cfg.ExplicitWait, wait.WithInterval(s.cfg.PollInterval))
}

// PageOptions returns the options page objects built on this session use.
func (s *Session) PageOptions() []page.Option {
	return []page.Option{page.WithWait(s.Wait()), page.WithScreenshotDir(s.cfg.ScreenshotDir)}
}

// URL joins path to the base URL configured for site.
func (s *Session) URL(site, path string) (string, error) {
	return s.cfg.URL(site, path)
}

// URL joins path to the base URL configured for site.
func (c Config) URL(site, path string) (string, error) {
	base, ok := c.BaseURLs[site]
	if !ok {
		return "", fmt.Errorf("no base URL for site %q", site)
	}
	if path == "" {
		return base, nil
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

// Screenshot saves a PNG of the current window as
// <ScreenshotDir>/<name>_<YYYYMMDD_HHMMSS>.png and returns its path.
func (s *Session) Screenshot(name string) (string, error) {
	img, err := s.wd.Screenshot()
	if err != nil {
		return "", fmt.Errorf("taking screenshot: %w", err)
	}
	if err := os.MkdirAll(s.cfg.ScreenshotDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.ScreenshotDir, report.ScreenshotName(name, s.now()))
	if err := os.WriteFile(path, img, 0644); err != nil {
		return "", err
	}
	glog.Infof("Saved screenshot %q", path)
	return path, nil
}

// Close quits the browser and stops the driver service and frame buffer. It
// returns the first error and is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.wd != nil {
			if err := s.wd.Quit(); err != nil {
				s.closeErr = fmt.Errorf("quitting browser: %w", err)
			}
		}
		if s.local != nil {
			if err := s.local.Stop(); err != nil && s.closeErr == nil {
				s.closeErr = fmt.Errorf("stopping driver service: %w", err)
			}
		}
	})
	return s.closeErr
}
