package element

import (
	"fmt"

	"github.com/tebeka/selenium"
)

// SetChecked clicks a checkbox only if its state differs from checked.
func SetChecked(el selenium.WebElement, checked bool) error {
	return setSelected(el, checked)
}

// Toggle flips a checkbox and returns its new state.
func Toggle(el selenium.WebElement) (bool, error) {
	if err := el.Click(); err != nil {
		return false, err
	}
	return el.IsSelected()
}

func radios(f interface {
	FindElements(by, value string) ([]selenium.WebElement, error)
}, name string) ([]selenium.WebElement, error) {
	els, err := f.FindElements(selenium.ByName, name)
	if err != nil {
		return nil, err
	}
	var out []selenium.WebElement
	for _, el := range els {
		if t, err := el.GetAttribute("type"); err == nil && t == "radio" {
			out = append(out, el)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no radio buttons named %q", name)
	}
	return out, nil
}

// ChooseRadio selects the radio button of group name with the given value.
func ChooseRadio(wd selenium.WebDriver, name, value string) error {
	els, err := radios(wd, name)
	if err != nil {
		return err
	}
	for _, el := range els {
		if v, err := el.GetAttribute("value"); err == nil && v == value {
			return setSelected(el, true)
		}
	}
	return fmt.Errorf("radio group %q has no value %q", name, value)
}

// ChosenRadio returns the value of the selected radio button of group name,
// or "" when none is selected.
func ChosenRadio(wd selenium.WebDriver, name string) (string, error) {
	els, err := radios(wd, name)
	if err != nil {
		return "", err
	}
	for _, el := range els {
		sel, err := el.IsSelected()
		if err != nil {
			return "", err
		}
		if sel {
			return el.GetAttribute("value")
		}
	}
	return "", nil
}
