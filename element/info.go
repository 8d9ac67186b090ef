package element

import (
	"github.com/tebeka/selenium"
)

// Info is a snapshot of an element's properties and state.
type Info struct {
	Tag        string
	Text       string
	Attributes map[string]string
	CSS        map[string]string
	Location   selenium.Point
	Size       selenium.Size
	Displayed  bool
	Enabled    bool
	Selected   bool
}

// Describe reads el. Only the named attributes and CSS properties are
// collected; attributes the element does not carry are left out.
func Describe(el selenium.WebElement, attrs, props []string) (Info, error) {
	var (
		info Info
		err  error
	)
	if info.Tag, err = el.TagName(); err != nil {
		return info, err
	}
	if info.Text, err = el.Text(); err != nil {
		return info, err
	}
	info.Attributes = make(map[string]string)
	for _, a := range attrs {
		if v, err := el.GetAttribute(a); err == nil {
			info.Attributes[a] = v
		}
	}
	info.CSS = make(map[string]string)
	for _, p := range props {
		v, err := el.CSSProperty(p)
		if err != nil {
			return info, err
		}
		info.CSS[p] = v
	}
	loc, err := el.Location()
	if err != nil {
		return info, err
	}
	info.Location = *loc
	size, err := el.Size()
	if err != nil {
		return info, err
	}
	info.Size = *size
	if info.Displayed, err = el.IsDisplayed(); err != nil {
		return info, err
	}
	if info.Enabled, err = el.IsEnabled(); err != nil {
		return info, err
	}
	if info.Selected, err = el.IsSelected(); err != nil {
		return info, err
	}
	return info, nil
}

// Href returns the target of a link, such as a file download URL.
func Href(el selenium.WebElement) (string, error) {
	return el.GetAttribute("href")
}
