// Package browser covers the parts of a session that sit above single
// elements: navigation history, windows and tabs, cookies, JavaScript, the
// browser's own logs and the raw page source.
package browser

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/wait"
)

// Navigator moves through the history of the current window. Every move
// waits for the new document to finish loading.
type Navigator struct {
	wd   selenium.WebDriver
	wait wait.Wait
}

// NewNavigator returns a Navigator that waits with w.
func NewNavigator(wd selenium.WebDriver, w wait.Wait) *Navigator {
	return &Navigator{wd: wd, wait: w}
}

func (n *Navigator) settle(ctx context.Context, what string, move func() error) error {
	if err := move(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if _, err := wait.Until(ctx, n.wait, n.wd, wait.DocumentReady()); err != nil {
		return fmt.Errorf("%s: waiting for page load: %w", what, err)
	}
	u, err := n.wd.CurrentURL()
	if err == nil {
		glog.V(1).Infof("browser: %s -> %s", what, u)
	}
	return nil
}

// Go loads url.
func (n *Navigator) Go(ctx context.Context, url string) error {
	return n.settle(ctx, "go "+url, func() error { return n.wd.Get(url) })
}

// Back goes one step back in history.
func (n *Navigator) Back(ctx context.Context) error {
	return n.settle(ctx, "back", n.wd.Back)
}

// Forward goes one step forward in history.
func (n *Navigator) Forward(ctx context.Context) error {
	return n.settle(ctx, "forward", n.wd.Forward)
}

// Refresh reloads the current page.
func (n *Navigator) Refresh(ctx context.Context) error {
	return n.settle(ctx, "refresh", n.wd.Refresh)
}
