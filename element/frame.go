package element

import (
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
)

// Frames switches the driver between the top document and its frames.
type Frames struct {
	wd selenium.WebDriver
}

func NewFrames(wd selenium.WebDriver) *Frames { return &Frames{wd: wd} }

// Enter switches into a frame given as a selenium.WebElement, a by.Locator, a
// zero-based index, or the frame's id or name.
func (f *Frames) Enter(frame interface{}) error {
	var target interface{}
	switch fr := frame.(type) {
	case selenium.WebElement, int:
		target = fr
	case by.Locator:
		el, err := fr.FindIn(f.wd)
		if err != nil {
			return fmt.Errorf("locating frame %s: %w", fr, err)
		}
		target = el
	case string:
		el, err := f.wd.FindElement(selenium.ByID, fr)
		if err != nil {
			el, err = f.wd.FindElement(selenium.ByName, fr)
		}
		if err != nil {
			return fmt.Errorf("no frame with id or name %q: %w", fr, err)
		}
		target = el
	default:
		return fmt.Errorf("unsupported frame reference %T", frame)
	}
	if err := f.wd.SwitchFrame(target); err != nil {
		return fmt.Errorf("switching to frame: %w", err)
	}
	return nil
}

// Exit returns to the top-level document.
func (f *Frames) Exit() error {
	return f.wd.SwitchFrame(nil)
}

// Within runs fn inside frame and always returns to the top-level document.
func (f *Frames) Within(frame interface{}, fn func() error) (err error) {
	if err := f.Enter(frame); err != nil {
		return err
	}
	defer func() {
		if exitErr := f.Exit(); exitErr != nil && err == nil {
			err = exitErr
		}
	}()
	return fn()
}
