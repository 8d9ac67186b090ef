package browser

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/wait"
)

// Windows manages the browser's top-level windows and tabs.
type Windows struct {
	wd   selenium.WebDriver
	wait wait.Wait
}

// NewWindows returns a Windows that waits with w.
func NewWindows(wd selenium.WebDriver, w wait.Wait) *Windows {
	return &Windows{wd: wd, wait: w}
}

// Handles returns the handles of every open window.
func (w *Windows) Handles() ([]string, error) {
	return w.wd.WindowHandles()
}

// Current returns the handle of the window commands are sent to.
func (w *Windows) Current() (string, error) {
	return w.wd.CurrentWindowHandle()
}

// OpenTab opens url in a new tab, switches to it and returns its handle.
func (w *Windows) OpenTab(ctx context.Context, url string) (string, error) {
	known, err := w.wd.WindowHandles()
	if err != nil {
		return "", err
	}
	if _, err := w.wd.ExecuteScript("window.open(arguments[0]);", []interface{}{url}); err != nil {
		return "", fmt.Errorf("opening tab: %w", err)
	}
	h, err := wait.Until(ctx, w.wait, w.wd, wait.NewWindow(known))
	if err != nil {
		return "", fmt.Errorf("waiting for new tab: %w", err)
	}
	if err := w.wd.SwitchWindow(h); err != nil {
		return "", err
	}
	return h, nil
}

// SwitchTo makes handle the current window.
func (w *Windows) SwitchTo(handle string) error {
	if err := w.wd.SwitchWindow(handle); err != nil {
		return fmt.Errorf("switching to window %q: %w", handle, err)
	}
	return nil
}

// CloseCurrent closes the current window and switches to next. Commands sent
// to a closed window fail, so next is required.
func (w *Windows) CloseCurrent(next string) error {
	cur, err := w.wd.CurrentWindowHandle()
	if err != nil {
		return err
	}
	if cur == next {
		return fmt.Errorf("cannot switch to the window being closed (%q)", next)
	}
	if err := w.wd.CloseWindow(cur); err != nil {
		return fmt.Errorf("closing window %q: %w", cur, err)
	}
	return w.SwitchTo(next)
}

// Resize sets the outer size of the current window.
func (w *Windows) Resize(width, height int) error {
	cur, err := w.wd.CurrentWindowHandle()
	if err != nil {
		return err
	}
	return w.wd.ResizeWindow(cur, width, height)
}

// Maximize maximizes the current window.
func (w *Windows) Maximize() error {
	cur, err := w.wd.CurrentWindowHandle()
	if err != nil {
		return err
	}
	return w.wd.MaximizeWindow(cur)
}

// Size reports the outer size of the current window as seen by the page.
func (w *Windows) Size() (selenium.Size, error) {
	v, err := w.wd.ExecuteScript("return [window.outerWidth, window.outerHeight];", nil)
	if err != nil {
		return selenium.Size{}, err
	}
	dims, ok := v.([]interface{})
	if !ok || len(dims) != 2 {
		return selenium.Size{}, fmt.Errorf("unexpected window size %v", v)
	}
	width, ok1 := dims[0].(float64)
	height, ok2 := dims[1].(float64)
	if !ok1 || !ok2 {
		return selenium.Size{}, fmt.Errorf("unexpected window size %v", v)
	}
	return selenium.Size{Width: int(width), Height: int(height)}, nil
}
