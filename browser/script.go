package browser

import (
	"encoding/json"
	"fmt"

	"github.com/tebeka/selenium"
)

const (
	scrollIntoViewScript = `arguments[0].scrollIntoView({block: "center"});`
	scrollToBottomScript = `window.scrollTo(0, document.body.scrollHeight);`
	pageHeightScript     = `return document.body.scrollHeight;`
	highlightScript      = `var el = arguments[0], old = el.getAttribute("style") || "";
el.setAttribute("style", old + "; border: 2px solid red;");
return old;`
	restoreStyleScript = `arguments[0].setAttribute("style", arguments[1]);`
	// HideWebDriverScript removes the navigator.webdriver flag that
	// automation-aware sites check for.
	HideWebDriverScript = `Object.defineProperty(navigator, "webdriver", {get: () => undefined});`
	describeScript      = `var el = arguments[0], r = el.getBoundingClientRect();
return JSON.stringify({tag: el.tagName.toLowerCase(), id: el.id, classes: Array.from(el.classList),
  text: el.innerText, width: r.width, height: r.height, children: el.children.length});`
)

// ScrollIntoView scrolls el to the middle of the viewport.
func ScrollIntoView(wd selenium.WebDriver, el selenium.WebElement) error {
	_, err := wd.ExecuteScript(scrollIntoViewScript, []interface{}{el})
	return err
}

// ScrollToBottom scrolls the window to the end of the document.
func ScrollToBottom(wd selenium.WebDriver) error {
	_, err := wd.ExecuteScript(scrollToBottomScript, nil)
	return err
}

// PageHeight returns the scrollable height of the document in pixels.
func PageHeight(wd selenium.WebDriver) (int, error) {
	v, err := wd.ExecuteScript(pageHeightScript, nil)
	if err != nil {
		return 0, err
	}
	h, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected page height %v", v)
	}
	return int(h), nil
}

// Highlight draws a red border around el and returns its previous inline
// style for Restore.
func Highlight(wd selenium.WebDriver, el selenium.WebElement) (string, error) {
	v, err := wd.ExecuteScript(highlightScript, []interface{}{el})
	if err != nil {
		return "", err
	}
	old, _ := v.(string)
	return old, nil
}

// Restore puts back the inline style returned by Highlight.
func Restore(wd selenium.WebDriver, el selenium.WebElement, style string) error {
	_, err := wd.ExecuteScript(restoreStyleScript, []interface{}{el, style})
	return err
}

// HideWebDriver makes navigator.webdriver report undefined on the current page.
func HideWebDriver(wd selenium.WebDriver) error {
	_, err := wd.ExecuteScript(HideWebDriverScript, nil)
	return err
}

// ElementInfo is the page's own view of an element.
type ElementInfo struct {
	Tag      string   `json:"tag"`
	ID       string   `json:"id"`
	Classes  []string `json:"classes"`
	Text     string   `json:"text"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Children int      `json:"children"`
}

// Describe asks the page about el in a single round trip.
func Describe(wd selenium.WebDriver, el selenium.WebElement) (ElementInfo, error) {
	var info ElementInfo
	v, err := wd.ExecuteScript(describeScript, []interface{}{el})
	if err != nil {
		return info, err
	}
	s, ok := v.(string)
	if !ok {
		return info, fmt.Errorf("unexpected describe result %T", v)
	}
	if err := json.Unmarshal([]byte(s), &info); err != nil {
		return info, fmt.Errorf("decoding element info: %w", err)
	}
	return info, nil
}
