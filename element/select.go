// Package element wraps the HTML controls that need more than a click:
// dropdowns, checkboxes and radio groups, tables, frames and alerts.
package element

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tebeka/selenium"
)

// Select wraps a <select> dropdown.
type Select struct {
	el    selenium.WebElement
	multi bool
}

// NewSelect wraps el, which must be a <select> element.
func NewSelect(el selenium.WebElement) (*Select, error) {
	tag, err := el.TagName()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tag, "select") {
		return nil, fmt.Errorf(`element should have been "select" but was %q`, tag)
	}
	s := &Select{el: el}
	// The remote end reports an absent attribute as an error.
	if v, err := el.GetAttribute("multiple"); err == nil && v != "" && !strings.EqualFold(v, "false") {
		s.multi = true
	}
	return s, nil
}

// Element returns the wrapped <select>.
func (s *Select) Element() selenium.WebElement { return s.el }

// IsMultiple reports whether more than one option may be selected.
func (s *Select) IsMultiple() bool { return s.multi }

// Options returns every <option> of the select.
func (s *Select) Options() ([]selenium.WebElement, error) {
	return s.el.FindElements(selenium.ByTagName, "option")
}

// SelectedOptions returns the options that are currently selected.
func (s *Select) SelectedOptions() ([]selenium.WebElement, error) {
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}
	var sel []selenium.WebElement
	for _, o := range opts {
		ok, err := o.IsSelected()
		if err != nil {
			return nil, err
		}
		if ok {
			sel = append(sel, o)
		}
	}
	return sel, nil
}

// FirstSelected returns the first selected option.
func (s *Select) FirstSelected() (selenium.WebElement, error) {
	sel, err := s.SelectedOptions()
	if err != nil {
		return nil, err
	}
	if len(sel) == 0 {
		return nil, fmt.Errorf("no option is selected")
	}
	return sel[0], nil
}

// SelectedText returns the visible text of the first selected option.
func (s *Select) SelectedText() (string, error) {
	o, err := s.FirstSelected()
	if err != nil {
		return "", err
	}
	t, err := o.Text()
	return strings.TrimSpace(t), err
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// matching returns the options for which match reports true.
func (s *Select) matching(match func(o selenium.WebElement, pos int) (bool, error)) ([]selenium.WebElement, error) {
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}
	var out []selenium.WebElement
	for i, o := range opts {
		ok, err := match(o, i)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func byText(text string) func(selenium.WebElement, int) (bool, error) {
	want := normalize(text)
	return func(o selenium.WebElement, _ int) (bool, error) {
		t, err := o.Text()
		return normalize(t) == want, err
	}
}

func byValue(value string) func(selenium.WebElement, int) (bool, error) {
	return func(o selenium.WebElement, _ int) (bool, error) {
		v, err := o.GetAttribute("value")
		if err != nil {
			return false, nil
		}
		return v == value, nil
	}
}

// byIndex matches the option's index attribute, falling back to its position
// when the attribute is not reported.
func byIndex(idx int) func(selenium.WebElement, int) (bool, error) {
	want := strconv.Itoa(idx)
	return func(o selenium.WebElement, pos int) (bool, error) {
		v, err := o.GetAttribute("index")
		if err != nil || v == "" {
			return pos == idx, nil
		}
		return v == want, nil
	}
}

func (s *Select) apply(what string, match func(selenium.WebElement, int) (bool, error), selected bool) error {
	opts, err := s.matching(match)
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		return fmt.Errorf("cannot locate option with %s", what)
	}
	for _, o := range opts {
		if err := setSelected(o, selected); err != nil {
			return err
		}
		if selected && !s.multi {
			return nil
		}
	}
	return nil
}

func setSelected(o selenium.WebElement, selected bool) error {
	cur, err := o.IsSelected()
	if err != nil {
		return err
	}
	if cur != selected {
		return o.Click()
	}
	return nil
}

// SelectByVisibleText selects the options whose whitespace-normalized text
// equals text. On a single select only the first match is selected.
func (s *Select) SelectByVisibleText(text string) error {
	return s.apply("text: "+text, byText(text), true)
}

// SelectByValue selects the options whose value attribute equals value.
func (s *Select) SelectByValue(value string) error {
	return s.apply("value: "+value, byValue(value), true)
}

// SelectByIndex selects the option at idx.
func (s *Select) SelectByIndex(idx int) error {
	return s.apply("index: "+strconv.Itoa(idx), byIndex(idx), true)
}

func (s *Select) requireMulti() error {
	if !s.multi {
		return fmt.Errorf("you may only deselect options of a multi-select")
	}
	return nil
}

// DeselectAll clears every selected option of a multi-select.
func (s *Select) DeselectAll() error {
	if err := s.requireMulti(); err != nil {
		return err
	}
	opts, err := s.Options()
	if err != nil {
		return err
	}
	for _, o := range opts {
		if err := setSelected(o, false); err != nil {
			return err
		}
	}
	return nil
}

// DeselectByValue deselects the options whose value attribute is value.
func (s *Select) DeselectByValue(value string) error {
	if err := s.requireMulti(); err != nil {
		return err
	}
	return s.apply("value: "+value, byValue(value), false)
}

// DeselectByIndex deselects the option at idx.
func (s *Select) DeselectByIndex(idx int) error {
	if err := s.requireMulti(); err != nil {
		return err
	}
	return s.apply("index: "+strconv.Itoa(idx), byIndex(idx), false)
}

// DeselectByVisibleText deselects the options whose text is text.
func (s *Select) DeselectByVisibleText(text string) error {
	if err := s.requireMulti(); err != nil {
		return err
	}
	return s.apply("text: "+text, byText(text), false)
}
