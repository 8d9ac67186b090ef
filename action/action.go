// Package action builds chains of low-level mouse and keyboard input.
//
// A Chain records steps and runs them in order on Perform:
//
//	err := action.New(wd).
//		MoveTo(menu, 0, 0).
//		Pause(200 * time.Millisecond).
//		ClickOn(item).
//		Perform()
//
// Steps use the WebDriver's mouse and keyboard commands. Drivers that only
// speak the W3C protocol reject those commands with "unknown command"; from
// that point on the chain dispatches equivalent DOM events from JavaScript.
package action

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/wait"
)

// Chain is an ordered list of input steps. It is not safe for concurrent
// use.
type Chain struct {
	wd    selenium.WebDriver
	steps []step
}

type step struct {
	name string
	do   func(*state) error
}

// state is the pointer and keyboard state while a chain runs.
type state struct {
	wd        selenium.WebDriver
	target    selenium.WebElement
	x, y      int
	modifiers []string
	synthetic bool
}

// New returns an empty chain for wd.
func New(wd selenium.WebDriver) *Chain {
	return &Chain{wd: wd}
}

func (c *Chain) add(name string, do func(*state) error) *Chain {
	c.steps = append(c.steps, step{name: name, do: do})
	return c
}

// Len returns the number of recorded steps.
func (c *Chain) Len() int { return len(c.steps) }

// Reset clears the recorded steps.
func (c *Chain) Reset() *Chain {
	c.steps = nil
	return c
}

// Perform runs the steps in order and stops at the first failure.
func (c *Chain) Perform() error {
	s := &state{wd: c.wd}
	for i, st := range c.steps {
		glog.V(2).Infof("action: step %d %s", i, st.name)
		if err := st.do(s); err != nil {
			return fmt.Errorf("action step %d (%s): %w", i, st.name, err)
		}
	}
	return nil
}

// native runs a WebDriver input command unless the chain already fell back
// to DOM events. It reports false when the server does not know the command.
func (s *state) native(cmd func() error) (bool, error) {
	if s.synthetic {
		return false, nil
	}
	err := cmd()
	if err == nil {
		return true, nil
	}
	if wait.IsUnknownCommand(err) {
		glog.V(1).Infof("action: driver rejected a legacy input command, dispatching DOM events instead")
		s.synthetic = true
		return false, nil
	}
	return false, err
}

func (s *state) requireTarget() error {
	if s.target == nil {
		return fmt.Errorf("no element under the pointer; call MoveTo first")
	}
	return nil
}

// dispatchScript fires mouse events at an offset from the element's top-left
// corner, or from its centre when both offsets are zero. arguments[5] holds
// the modifier flags of the keys held down.
const dispatchScript = `var el = arguments[0], types = arguments[1], button = arguments[2], mods = arguments[5] || {};
var r = el.getBoundingClientRect();
var x = r.left + (arguments[3] || r.width / 2), y = r.top + (arguments[4] || r.height / 2);
for (var i = 0; i < types.length; i++) {
  el.dispatchEvent(new MouseEvent(types[i], {bubbles: true, cancelable: true, view: window,
    button: button, buttons: types[i] === 'mouseup' ? 0 : 1 << button, clientX: x, clientY: y,
    ctrlKey: !!mods.ctrlKey, shiftKey: !!mods.shiftKey, altKey: !!mods.altKey, metaKey: !!mods.metaKey}));
}`

var modifierFlags = map[string]string{
	selenium.ControlKey: "ctrlKey",
	selenium.ShiftKey:   "shiftKey",
	selenium.AltKey:     "altKey",
	selenium.MetaKey:    "metaKey",
}

// held returns the MouseEvent flags of the modifiers pressed by KeyDown.
func (s *state) held() map[string]bool {
	flags := make(map[string]bool, len(modifierFlags))
	for _, f := range modifierFlags {
		flags[f] = false
	}
	for _, m := range s.modifiers {
		if f, ok := modifierFlags[m]; ok {
			flags[f] = true
		}
	}
	return flags
}

func (s *state) dispatch(button int, types ...string) error {
	if err := s.requireTarget(); err != nil {
		return err
	}
	_, err := s.wd.ExecuteScript(dispatchScript, []interface{}{s.target, types, button, s.x, s.y, s.held()})
	return err
}

// MoveTo moves the pointer to el, offset by (x, y) from its top-left corner.
// Zero offsets point at the centre.
func (c *Chain) MoveTo(el selenium.WebElement, x, y int) *Chain {
	return c.add("move to element", func(s *state) error {
		ok, err := s.native(func() error { return el.MoveTo(x, y) })
		if err != nil {
			return err
		}
		s.target, s.x, s.y = el, x, y
		if ok {
			return nil
		}
		return s.dispatch(selenium.LeftButton, "mouseover", "mouseenter", "mousemove")
	})
}

// Click clicks the left button at the current pointer position.
func (c *Chain) Click() *Chain {
	return c.add("click", func(s *state) error {
		ok, err := s.native(func() error { return s.wd.Click(selenium.LeftButton) })
		if ok || err != nil {
			return err
		}
		if err := s.requireTarget(); err != nil {
			return err
		}
		// The element click command cannot carry held modifiers.
		if len(s.modifiers) > 0 {
			return s.dispatch(selenium.LeftButton, "mousedown", "mouseup", "click")
		}
		return s.target.Click()
	})
}

// ClickOn moves to the centre of el and clicks it.
func (c *Chain) ClickOn(el selenium.WebElement) *Chain {
	return c.MoveTo(el, 0, 0).Click()
}

// DoubleClick double-clicks at the current pointer position.
func (c *Chain) DoubleClick() *Chain {
	return c.add("double click", func(s *state) error {
		ok, err := s.native(s.wd.DoubleClick)
		if ok || err != nil {
			return err
		}
		return s.dispatch(selenium.LeftButton, "mousedown", "mouseup", "click", "mousedown", "mouseup", "click", "dblclick")
	})
}

// ContextClick clicks the right button at the current pointer position.
func (c *Chain) ContextClick() *Chain {
	return c.add("context click", func(s *state) error {
		ok, err := s.native(func() error { return s.wd.Click(selenium.RightButton) })
		if ok || err != nil {
			return err
		}
		return s.dispatch(selenium.RightButton, "mousedown", "mouseup", "contextmenu")
	})
}

// ClickAndHold presses the left button without releasing it.
func (c *Chain) ClickAndHold() *Chain {
	return c.add("click and hold", func(s *state) error {
		ok, err := s.native(s.wd.ButtonDown)
		if ok || err != nil {
			return err
		}
		return s.dispatch(selenium.LeftButton, "mousedown")
	})
}

// Release releases the left button.
func (c *Chain) Release() *Chain {
	return c.add("release", func(s *state) error {
		ok, err := s.native(s.wd.ButtonUp)
		if ok || err != nil {
			return err
		}
		return s.dispatch(selenium.LeftButton, "mouseup")
	})
}

// DragAndDrop presses the button on src, moves to dst and releases it there.
func (c *Chain) DragAndDrop(src, dst selenium.WebElement) *Chain {
	return c.MoveTo(src, 0, 0).ClickAndHold().MoveTo(dst, 0, 0).Release()
}

// KeyDown presses a key, usually a modifier such as selenium.ShiftKey. The
// key stays down until KeyUp.
func (c *Chain) KeyDown(key string) *Chain {
	return c.add("key down", func(s *state) error {
		ok, err := s.native(func() error { return s.wd.KeyDown(key) })
		if err != nil {
			return err
		}
		if !ok {
			s.modifiers = append(s.modifiers, key)
		}
		return nil
	})
}

// KeyUp releases a key pressed by KeyDown.
func (c *Chain) KeyUp(key string) *Chain {
	return c.add("key up", func(s *state) error {
		ok, err := s.native(func() error { return s.wd.KeyUp(key) })
		if err != nil {
			return err
		}
		if !ok {
			for i, m := range s.modifiers {
				if m == key {
					s.modifiers = append(s.modifiers[:i], s.modifiers[i+1:]...)
					break
				}
			}
		}
		return nil
	})
}

// SendKeys types keys into the focused element.
func (c *Chain) SendKeys(keys string) *Chain {
	return c.add("send keys", func(s *state) error {
		ok, err := s.native(func() error { return s.wd.KeyDown(keys) })
		if ok || err != nil {
			return err
		}
		el, err := s.wd.ActiveElement()
		if err != nil {
			return fmt.Errorf("finding the focused element: %w", err)
		}
		return el.SendKeys(strings.Join(s.modifiers, "") + keys)
	})
}

// Pause waits for d.
func (c *Chain) Pause(d time.Duration) *Chain {
	return c.add("pause", func(*state) error {
		time.Sleep(d)
		return nil
	})
}

// Hover moves the pointer over el.
func Hover(wd selenium.WebDriver, el selenium.WebElement) error {
	return New(wd).MoveTo(el, 0, 0).Perform()
}

// SelectAll selects the whole content of an input with Ctrl+A.
func SelectAll(el selenium.WebElement) error {
	if err := el.SendKeys(selenium.ControlKey + "a"); err != nil {
		return fmt.Errorf("select all: %w", err)
	}
	return nil
}
