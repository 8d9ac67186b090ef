package wait

import (
	"regexp"
	"strings"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
)

// TitleIs waits for an exact page title.
func TitleIs(title string) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		t, err := wd.Title()
		return t == title, t == title, err
	}
}

// TitleContains waits for the page title to contain s.
func TitleContains(s string) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		t, err := wd.Title()
		ok := strings.Contains(t, s)
		return ok, ok, err
	}
}

// URLContains waits for the current URL to contain s.
func URLContains(s string) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		u, err := wd.CurrentURL()
		ok := strings.Contains(u, s)
		return ok, ok, err
	}
}

// URLToBe waits for the current URL to equal u.
func URLToBe(u string) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		cur, err := wd.CurrentURL()
		return cur == u, cur == u, err
	}
}

// URLMatches waits for the current URL to match re.
func URLMatches(re *regexp.Regexp) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		u, err := wd.CurrentURL()
		ok := re.MatchString(u)
		return ok, ok, err
	}
}

// PresenceOf waits for an element to be in the DOM, visible or not.
func PresenceOf(l by.Locator) Condition[selenium.WebElement] {
	return func(wd selenium.WebDriver) (selenium.WebElement, bool, error) {
		el, err := l.FindIn(wd)
		if err != nil {
			return nil, false, err
		}
		return el, true, nil
	}
}

// PresenceOfAll waits for at least one match and returns all of them.
func PresenceOfAll(l by.Locator) Condition[[]selenium.WebElement] {
	return MinimumCount(l, 1)
}

// MinimumCount waits for at least n matches.
func MinimumCount(l by.Locator, n int) Condition[[]selenium.WebElement] {
	return func(wd selenium.WebDriver) ([]selenium.WebElement, bool, error) {
		els, err := l.FindAllIn(wd)
		if err != nil {
			return nil, false, err
		}
		return els, len(els) >= n, nil
	}
}

// VisibilityOf waits for an element to be present and displayed.
func VisibilityOf(l by.Locator) Condition[selenium.WebElement] {
	return func(wd selenium.WebDriver) (selenium.WebElement, bool, error) {
		el, err := l.FindIn(wd)
		if err != nil {
			return nil, false, err
		}
		return VisibilityOfElement(el)(wd)
	}
}

// VisibilityOfElement waits for an already located element to be displayed.
func VisibilityOfElement(el selenium.WebElement) Condition[selenium.WebElement] {
	return func(selenium.WebDriver) (selenium.WebElement, bool, error) {
		shown, err := el.IsDisplayed()
		if err != nil || !shown {
			return nil, false, err
		}
		return el, true, nil
	}
}

// VisibilityOfAll waits until there is at least one match and every match is
// displayed.
func VisibilityOfAll(l by.Locator) Condition[[]selenium.WebElement] {
	return func(wd selenium.WebDriver) ([]selenium.WebElement, bool, error) {
		els, err := l.FindAllIn(wd)
		if err != nil || len(els) == 0 {
			return nil, false, err
		}
		for _, el := range els {
			shown, err := el.IsDisplayed()
			if err != nil || !shown {
				return nil, false, err
			}
		}
		return els, true, nil
	}
}

// InvisibilityOf waits for an element to be hidden or gone from the DOM.
func InvisibilityOf(l by.Locator) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		el, err := l.FindIn(wd)
		if IsNoSuchElement(err) {
			return true, true, nil
		}
		if err != nil {
			return false, false, err
		}
		shown, err := el.IsDisplayed()
		if IsStale(err) {
			return true, true, nil
		}
		return !shown, !shown && err == nil, err
	}
}

// Clickable waits for an element to be displayed and enabled.
func Clickable(l by.Locator) Condition[selenium.WebElement] {
	return func(wd selenium.WebDriver) (selenium.WebElement, bool, error) {
		el, ok, err := VisibilityOf(l)(wd)
		if err != nil || !ok {
			return nil, false, err
		}
		enabled, err := el.IsEnabled()
		if err != nil || !enabled {
			return nil, false, err
		}
		return el, true, nil
	}
}

// Selected waits for an element to be selected.
func Selected(l by.Locator) Condition[selenium.WebElement] {
	return func(wd selenium.WebDriver) (selenium.WebElement, bool, error) {
		el, err := l.FindIn(wd)
		if err != nil {
			return nil, false, err
		}
		sel, err := el.IsSelected()
		if err != nil || !sel {
			return nil, false, err
		}
		return el, true, nil
	}
}

// SelectionIs waits for el's selection state to equal want.
func SelectionIs(el selenium.WebElement, want bool) Condition[bool] {
	return func(selenium.WebDriver) (bool, bool, error) {
		sel, err := el.IsSelected()
		return sel, err == nil && sel == want, err
	}
}

// Staleness waits for el to be detached from the DOM.
func Staleness(el selenium.WebElement) Condition[bool] {
	return func(selenium.WebDriver) (bool, bool, error) {
		_, err := el.IsEnabled()
		if IsStale(err) {
			return true, true, nil
		}
		return false, false, err
	}
}

// TextPresent waits for an element's text to contain text.
func TextPresent(l by.Locator, text string) Condition[selenium.WebElement] {
	return func(wd selenium.WebDriver) (selenium.WebElement, bool, error) {
		el, err := l.FindIn(wd)
		if err != nil {
			return nil, false, err
		}
		got, err := el.Text()
		if err != nil || !strings.Contains(got, text) {
			return nil, false, err
		}
		return el, true, nil
	}
}

// ValuePresent waits for an element's value attribute to contain text.
func ValuePresent(l by.Locator, text string) Condition[selenium.WebElement] {
	return AttributeContains(l, "value", text)
}

// AttributeContains waits for an attribute of an element to contain text. A
// missing attribute counts as not yet.
func AttributeContains(l by.Locator, attr, text string) Condition[selenium.WebElement] {
	return func(wd selenium.WebDriver) (selenium.WebElement, bool, error) {
		el, err := l.FindIn(wd)
		if err != nil {
			return nil, false, err
		}
		v, err := el.GetAttribute(attr)
		if err != nil {
			if IsStale(err) {
				return nil, false, err
			}
			return nil, false, nil
		}
		if !strings.Contains(v, text) {
			return nil, false, nil
		}
		return el, true, nil
	}
}

// AlertPresent waits for a JavaScript alert and returns its text.
func AlertPresent() Condition[string] {
	return func(wd selenium.WebDriver) (string, bool, error) {
		text, err := wd.AlertText()
		if IsNoAlert(err) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	}
}

// DocumentReady waits for document.readyState to become "complete".
func DocumentReady() Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		v, err := wd.ExecuteScript("return document.readyState", nil)
		if err != nil {
			return false, false, err
		}
		ok := v == "complete"
		return ok, ok, nil
	}
}

// NumberOfWindows waits for exactly n window handles.
func NumberOfWindows(n int) Condition[[]string] {
	return func(wd selenium.WebDriver) ([]string, bool, error) {
		hs, err := wd.WindowHandles()
		if err != nil {
			return nil, false, err
		}
		return hs, len(hs) == n, nil
	}
}

// NewWindow waits for a handle not in known and returns it.
func NewWindow(known []string) Condition[string] {
	seen := make(map[string]bool, len(known))
	for _, h := range known {
		seen[h] = true
	}
	return func(wd selenium.WebDriver) (string, bool, error) {
		hs, err := wd.WindowHandles()
		if err != nil {
			return "", false, err
		}
		for _, h := range hs {
			if !seen[h] {
				return h, true, nil
			}
		}
		return "", false, nil
	}
}

// FrameAvailable waits for the frame located by l and switches into it.
func FrameAvailable(l by.Locator) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		el, err := l.FindIn(wd)
		if err != nil {
			return false, false, err
		}
		err = wd.SwitchFrame(el)
		if IsNoSuchFrame(err) {
			return false, false, nil
		}
		return err == nil, err == nil, err
	}
}

// All is done once every condition is done in the same poll.
func All(conds ...Condition[bool]) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		for _, c := range conds {
			_, ok, err := c(wd)
			if err != nil || !ok {
				return false, false, err
			}
		}
		return true, true, nil
	}
}

// Any is done as soon as one condition is done. Errors from the other
// conditions are dropped when one succeeds.
func Any(conds ...Condition[bool]) Condition[bool] {
	return func(wd selenium.WebDriver) (bool, bool, error) {
		var first error
		for _, c := range conds {
			_, ok, err := c(wd)
			if err == nil && ok {
				return true, true, nil
			}
			if first == nil {
				first = err
			}
		}
		return false, false, first
	}
}
