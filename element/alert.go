package element

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/wait"
)

// Alerts handles JavaScript alert, confirm and prompt dialogs. Every method
// first waits for a dialog to open.
type Alerts struct {
	wd   selenium.WebDriver
	wait wait.Wait
}

func NewAlerts(wd selenium.WebDriver, w wait.Wait) *Alerts {
	return &Alerts{wd: wd, wait: w}
}

// Text returns the dialog message.
func (a *Alerts) Text(ctx context.Context) (string, error) {
	text, err := wait.Until(ctx, a.wait, a.wd, wait.AlertPresent())
	if err != nil {
		return "", fmt.Errorf("waiting for alert: %w", err)
	}
	return text, nil
}

// Accept presses OK and returns the dialog message.
func (a *Alerts) Accept(ctx context.Context) (string, error) {
	text, err := a.Text(ctx)
	if err != nil {
		return "", err
	}
	return text, a.wd.AcceptAlert()
}

// Dismiss presses Cancel and returns the dialog message.
func (a *Alerts) Dismiss(ctx context.Context) (string, error) {
	text, err := a.Text(ctx)
	if err != nil {
		return "", err
	}
	return text, a.wd.DismissAlert()
}

// Prompt types answer into a prompt dialog and accepts it.
func (a *Alerts) Prompt(ctx context.Context, answer string) (string, error) {
	text, err := a.Text(ctx)
	if err != nil {
		return "", err
	}
	if err := a.wd.SetAlertText(answer); err != nil {
		return "", err
	}
	return text, a.wd.AcceptAlert()
}
