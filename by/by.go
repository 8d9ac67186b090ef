// Package by describes how to locate elements on a page.
package by

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
)

// Locator pairs a selenium lookup strategy with its value.
type Locator struct {
	By    string
	Value string
}

func (l Locator) String() string {
	return l.By + "=" + l.Value
}

// ID locates an element by its id attribute.
func ID(id string) Locator { return Locator{selenium.ByID, id} }

// Name locates an element by its name attribute.
func Name(name string) Locator { return Locator{selenium.ByName, name} }

// Class locates an element by one of its classes.
func Class(class string) Locator { return Locator{selenium.ByClassName, class} }

// Tag locates an element by its tag name.
func Tag(tag string) Locator { return Locator{selenium.ByTagName, tag} }

// LinkText locates an anchor by its exact visible text.
func LinkText(text string) Locator { return Locator{selenium.ByLinkText, text} }

// PartialLinkText locates an anchor whose visible text contains text.
func PartialLinkText(text string) Locator { return Locator{selenium.ByPartialLinkText, text} }

// CSS locates an element with a CSS selector.
func CSS(selector string) Locator { return Locator{selenium.ByCSSSelector, selector} }

// XPath locates an element with an XPath expression.
func XPath(expr string) Locator { return Locator{selenium.ByXPATH, expr} }

// Finder is implemented by both selenium.WebDriver and selenium.WebElement.
type Finder interface {
	FindElement(by, value string) (selenium.WebElement, error)
	FindElements(by, value string) ([]selenium.WebElement, error)
}

// FindIn looks the locator up under f, which is either the driver or an
// element acting as the search root.
func (l Locator) FindIn(f Finder) (selenium.WebElement, error) {
	return f.FindElement(l.By, l.Value)
}

// FindAllIn returns every match under f.
func (l Locator) FindAllIn(f Finder) ([]selenium.WebElement, error) {
	return f.FindElements(l.By, l.Value)
}

// Literal quotes s as an XPath string literal. XPath 1.0 has no escape
// sequences, so a string holding both quote kinds is assembled with concat().
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + p + `"`)
	}
	b.WriteString(")")
	return b.String()
}

func tagOrAny(tag string) string {
	if tag == "" {
		return "*"
	}
	return tag
}

// TextIs matches elements of the given tag whose normalized text equals text.
// An empty tag matches any element.
func TextIs(tag, text string) Locator {
	return XPath(fmt.Sprintf("//%s[normalize-space(.)=%s]", tagOrAny(tag), Literal(text)))
}

// TextContains matches elements of the given tag whose text contains text.
func TextContains(tag, text string) Locator {
	return XPath(fmt.Sprintf("//%s[contains(., %s)]", tagOrAny(tag), Literal(text)))
}

// AttrIs matches elements whose attribute attr equals value.
func AttrIs(tag, attr, value string) Locator {
	return XPath(fmt.Sprintf("//%s[@%s=%s]", tagOrAny(tag), attr, Literal(value)))
}
