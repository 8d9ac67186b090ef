// Package fakewd provides an in-memory selenium.WebDriver for unit tests.
//
// A Driver serves a fixed set of Pages keyed by URL. Each Page holds a tree of
// Elements that answer lookups by id, name, class, tag, link text and simple
// CSS selectors; anything more elaborate is matched against the element's
// Selectors list verbatim. Methods not modelled here panic through the
// embedded nil interface, which makes accidental use obvious in tests.
//
// A Driver is not safe for concurrent use.
package fakewd

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"
)

// ErrUnhandled is returned by a Script hook to fall through to the built-in
// script handling.
var ErrUnhandled = errors.New("fakewd: script not handled")

// Page is one document served by the Driver.
type Page struct {
	Title    string
	Source   string
	Elements []*Element
	// Frames maps a frame name or id to its document. FrameOrder gives the
	// index order used by SwitchFrame(int).
	Frames     map[string]*Page
	FrameOrder []string
	// Alert, when set, is raised as soon as the page loads.
	Alert  string
	OnLoad func(d *Driver)
}

// Element is a node on a fake page.
type Element struct {
	selenium.WebElement

	ID        string
	Tag       string
	InnerText string
	Classes   []string
	Attrs     map[string]string
	CSS       map[string]string
	// Selectors lists extra CSS or XPath expressions the element answers to.
	Selectors []string
	Children  []*Element

	Hidden   bool
	Disabled bool
	Selected bool
	Stale    bool
	Loc      selenium.Point
	Dim      selenium.Size

	// PresentAfter hides the element from the first n lookups that would
	// otherwise match it.
	PresentAfter int
	// VisibleAfter makes the first n IsDisplayed calls report false.
	VisibleAfter int

	OnClick  func(d *Driver, e *Element) error
	OnSubmit func(d *Driver, e *Element) error

	// Keys records every SendKeys call.
	Keys   []string
	Clicks int

	d             *Driver
	parent        *Element
	lookups       int
	displayChecks int
}

type window struct {
	handle  string
	history []string
	pos     int
}

// Driver is a fake selenium.WebDriver.
type Driver struct {
	selenium.WebDriver

	Pages map[string]*Page
	// Script, when set, is consulted before the built-in script handling.
	Script func(d *Driver, script string, args []interface{}) (interface{}, error)
	// ReadyStates is consumed one value per document.readyState query; once
	// empty the state is "complete".
	ReadyStates   []string
	Caps          selenium.Capabilities
	Logs          map[log.Type][]log.Message
	ScreenshotPNG []byte

	// Observations for assertions.
	Scripts      []string
	Actions      []string
	ImplicitWait time.Duration
	PageLoad     time.Duration
	Quitted      bool
	Maximized    bool
	WindowSize   selenium.Size
	PromptText   string
	AlertResults []string

	windows []*window
	current *window
	frame   *Page
	cookies []selenium.Cookie
	alert   *string
	hovered *Element
	nextWin int
}

// New returns a Driver with one open window on about:blank.
func New(pages map[string]*Page) *Driver {
	d := &Driver{
		Pages: pages,
		Caps:  selenium.Capabilities{"browserName": "fake", "browserVersion": "1.0"},
		Logs:  map[log.Type][]log.Message{},
	}
	d.current = d.newWindow()
	return d
}

func (d *Driver) newWindow() *window {
	d.nextWin++
	w := &window{handle: fmt.Sprintf("window-%d", d.nextWin), history: []string{"about:blank"}}
	d.windows = append(d.windows, w)
	return w
}

func wdError(kind, format string, args ...interface{}) error {
	return &selenium.Error{Err: kind, Message: fmt.Sprintf(format, args...), HTTPCode: 404}
}

// NoSuchElement builds the error a WebDriver server returns for a failed lookup.
func NoSuchElement(by, value string) error {
	return wdError("no such element", "Unable to locate element: %s=%s", by, value)
}

func (d *Driver) page() *Page {
	if d.frame != nil {
		return d.frame
	}
	return d.topPage()
}

func (d *Driver) topPage() *Page {
	if d.current == nil {
		return &Page{}
	}
	u := d.current.history[d.current.pos]
	if p, ok := d.Pages[u]; ok {
		return p
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		if p, ok := d.Pages[u[:i]]; ok {
			return p
		}
	}
	if u == "about:blank" {
		return &Page{}
	}
	return &Page{Title: "Not Found"}
}

func (d *Driver) bind(p *Page) {
	var walk func(parent *Element, es []*Element)
	walk = func(parent *Element, es []*Element) {
		for _, e := range es {
			e.d, e.parent = d, parent
			walk(e, e.Children)
		}
	}
	walk(nil, p.Elements)
	for _, f := range p.Frames {
		d.bind(f)
	}
}

func (d *Driver) load() {
	d.frame = nil
	d.hovered = nil
	p := d.topPage()
	d.bind(p)
	if p.Alert != "" {
		d.ShowAlert(p.Alert)
	}
	if p.OnLoad != nil {
		p.OnLoad(d)
	}
}

// Navigate loads u in the current window as if the user followed a link.
func (d *Driver) Navigate(u string) {
	w := d.current
	w.history = append(w.history[:w.pos+1], u)
	w.pos++
	d.load()
}

// ShowAlert raises a JavaScript alert with the given text.
func (d *Driver) ShowAlert(text string) {
	d.alert = &text
}

func (d *Driver) requireWindow() error {
	if d.Quitted {
		return wdError("invalid session id", "session deleted because of page crash")
	}
	if d.current == nil {
		return wdError("no such window", "current window is closed")
	}
	return nil
}

// WebDriver methods.

func (d *Driver) Get(u string) error {
	if err := d.requireWindow(); err != nil {
		return err
	}
	d.Navigate(u)
	return nil
}

func (d *Driver) Back() error {
	if err := d.requireWindow(); err != nil {
		return err
	}
	if d.current.pos > 0 {
		d.current.pos--
		d.load()
	}
	return nil
}

func (d *Driver) Forward() error {
	if err := d.requireWindow(); err != nil {
		return err
	}
	if d.current.pos < len(d.current.history)-1 {
		d.current.pos++
		d.load()
	}
	return nil
}

func (d *Driver) Refresh() error {
	if err := d.requireWindow(); err != nil {
		return err
	}
	d.load()
	return nil
}

func (d *Driver) CurrentURL() (string, error) {
	if err := d.requireWindow(); err != nil {
		return "", err
	}
	return d.current.history[d.current.pos], nil
}

func (d *Driver) Title() (string, error) {
	if err := d.requireWindow(); err != nil {
		return "", err
	}
	return d.topPage().Title, nil
}

func (d *Driver) PageSource() (string, error) {
	p := d.page()
	if p.Source != "" {
		return p.Source, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body>", html.EscapeString(p.Title))
	for _, e := range p.Elements {
		e.render(&b)
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

func (e *Element) render(b *strings.Builder) {
	tag := e.Tag
	if tag == "" {
		tag = "div"
	}
	fmt.Fprintf(b, "<%s", tag)
	if e.ID != "" {
		fmt.Fprintf(b, ` id="%s"`, html.EscapeString(e.ID))
	}
	if len(e.Classes) > 0 {
		fmt.Fprintf(b, ` class="%s"`, html.EscapeString(strings.Join(e.Classes, " ")))
	}
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ` %s="%s"`, k, html.EscapeString(e.Attrs[k]))
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(e.InnerText))
	for _, c := range e.Children {
		c.render(b)
	}
	fmt.Fprintf(b, "</%s>", tag)
}

func find(roots []*Element, by, value string, all bool) []*Element {
	var out []*Element
	var walk func(es []*Element) bool
	walk = func(es []*Element) bool {
		for _, e := range es {
			if e.matches(by, value) {
				e.lookups++
				if e.lookups > e.PresentAfter {
					out = append(out, e)
					if !all {
						return true
					}
				}
			}
			if walk(e.Children) {
				return true
			}
		}
		return false
	}
	walk(roots)
	return out
}

func asWebElements(es []*Element) []selenium.WebElement {
	out := make([]selenium.WebElement, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

func (d *Driver) FindElement(by, value string) (selenium.WebElement, error) {
	if err := d.requireWindow(); err != nil {
		return nil, err
	}
	es := find(d.page().Elements, by, value, false)
	if len(es) == 0 {
		return nil, NoSuchElement(by, value)
	}
	return es[0], nil
}

func (d *Driver) FindElements(by, value string) ([]selenium.WebElement, error) {
	if err := d.requireWindow(); err != nil {
		return nil, err
	}
	return asWebElements(find(d.page().Elements, by, value, true)), nil
}

func (d *Driver) ActiveElement() (selenium.WebElement, error) {
	if d.hovered != nil {
		return d.hovered, nil
	}
	return nil, NoSuchElement("active", "element")
}

func (d *Driver) GetCookies() ([]selenium.Cookie, error) {
	return append([]selenium.Cookie(nil), d.cookies...), nil
}

func (d *Driver) GetCookie(name string) (selenium.Cookie, error) {
	for _, c := range d.cookies {
		if c.Name == name {
			return c, nil
		}
	}
	return selenium.Cookie{}, wdError("no such cookie", "cookie %q not found", name)
}

func (d *Driver) AddCookie(c *selenium.Cookie) error {
	d.DeleteCookie(c.Name)
	d.cookies = append(d.cookies, *c)
	return nil
}

func (d *Driver) DeleteCookie(name string) error {
	kept := d.cookies[:0]
	for _, c := range d.cookies {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	d.cookies = kept
	return nil
}

func (d *Driver) DeleteAllCookies() error {
	d.cookies = nil
	return nil
}

func (d *Driver) WindowHandles() ([]string, error) {
	var hs []string
	for _, w := range d.windows {
		hs = append(hs, w.handle)
	}
	return hs, nil
}

func (d *Driver) CurrentWindowHandle() (string, error) {
	if err := d.requireWindow(); err != nil {
		return "", err
	}
	return d.current.handle, nil
}

func (d *Driver) SwitchWindow(name string) error {
	for _, w := range d.windows {
		if w.handle == name {
			d.current = w
			d.frame = nil
			d.bind(d.topPage())
			return nil
		}
	}
	return wdError("no such window", "window %q not found", name)
}

func (d *Driver) CloseWindow(name string) error {
	for i, w := range d.windows {
		if w.handle == name {
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			if d.current == w {
				d.current = nil
			}
			return nil
		}
	}
	return wdError("no such window", "window %q not found", name)
}

// OpenWindow opens u in a new window without switching to it, like
// window.open does, and returns the handle.
func (d *Driver) OpenWindow(u string) string {
	w := d.newWindow()
	if u != "" {
		w.history = append(w.history, u)
		w.pos = 1
	}
	return w.handle
}

func (d *Driver) MaximizeWindow(string) error {
	d.Maximized = true
	return nil
}

func (d *Driver) ResizeWindow(_ string, width, height int) error {
	d.Maximized = false
	d.WindowSize = selenium.Size{Width: width, Height: height}
	return nil
}

func (d *Driver) SwitchFrame(frame interface{}) error {
	if frame == nil {
		d.frame = nil
		return nil
	}
	top := d.topPage()
	var key string
	switch f := frame.(type) {
	case string:
		key = f
	case int:
		if f < 0 || f >= len(top.FrameOrder) {
			return wdError("no such frame", "frame index %d out of range", f)
		}
		key = top.FrameOrder[f]
	case *Element:
		key = f.ID
		if _, ok := top.Frames[key]; !ok {
			key = f.Attrs["name"]
		}
	default:
		return wdError("invalid argument", "unsupported frame %T", frame)
	}
	p, ok := top.Frames[key]
	if !ok {
		return wdError("no such frame", "frame %q not found", key)
	}
	d.frame = p
	return nil
}

func (d *Driver) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	d.Scripts = append(d.Scripts, script)
	if d.Script != nil {
		v, err := d.Script(d, script, args)
		if err != ErrUnhandled {
			return v, err
		}
	}
	switch {
	case strings.Contains(script, "document.readyState"):
		if len(d.ReadyStates) > 0 {
			s := d.ReadyStates[0]
			d.ReadyStates = d.ReadyStates[1:]
			return s, nil
		}
		return "complete", nil
	case strings.Contains(script, "window.open"):
		var u string
		if len(args) > 0 {
			u, _ = args[0].(string)
		}
		d.OpenWindow(u)
		return nil, nil
	}
	return nil, nil
}

func (d *Driver) Screenshot() ([]byte, error) {
	if d.ScreenshotPNG != nil {
		return d.ScreenshotPNG, nil
	}
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (d *Driver) Log(typ log.Type) ([]log.Message, error) {
	return d.Logs[typ], nil
}

func (d *Driver) Capabilities() (selenium.Capabilities, error) {
	return d.Caps, nil
}

func (d *Driver) SetImplicitWaitTimeout(t time.Duration) error {
	d.ImplicitWait = t
	return nil
}

func (d *Driver) SetPageLoadTimeout(t time.Duration) error {
	d.PageLoad = t
	return nil
}

func (d *Driver) Quit() error {
	d.Quitted = true
	return nil
}

func (d *Driver) AlertText() (string, error) {
	if d.alert == nil {
		return "", wdError("no such alert", "no alert is open")
	}
	return *d.alert, nil
}

func (d *Driver) AcceptAlert() error {
	if d.alert == nil {
		return wdError("no such alert", "no alert is open")
	}
	d.AlertResults = append(d.AlertResults, "accepted")
	d.alert = nil
	return nil
}

func (d *Driver) DismissAlert() error {
	if d.alert == nil {
		return wdError("no such alert", "no alert is open")
	}
	d.AlertResults = append(d.AlertResults, "dismissed")
	d.alert = nil
	return nil
}

func (d *Driver) SetAlertText(text string) error {
	if d.alert == nil {
		return wdError("no such alert", "no alert is open")
	}
	d.PromptText = text
	return nil
}

func (d *Driver) Click(button int) error {
	d.Actions = append(d.Actions, fmt.Sprintf("click:%d", button))
	if d.hovered != nil && button == selenium.LeftButton {
		return d.hovered.Click()
	}
	return nil
}

func (d *Driver) DoubleClick() error {
	d.Actions = append(d.Actions, "doubleclick")
	if d.hovered != nil {
		d.hovered.Clicks += 2
	}
	return nil
}

func (d *Driver) ButtonDown() error {
	d.Actions = append(d.Actions, "buttondown")
	return nil
}

func (d *Driver) ButtonUp() error {
	d.Actions = append(d.Actions, "buttonup")
	return nil
}

func (d *Driver) KeyDown(keys string) error {
	d.Actions = append(d.Actions, "keydown:"+keys)
	return nil
}

func (d *Driver) KeyUp(keys string) error {
	d.Actions = append(d.Actions, "keyup:"+keys)
	return nil
}

// Element methods.

var (
	simpleID    = regexp.MustCompile(`^#[\w-]+$`)
	simpleClass = regexp.MustCompile(`^\.[\w-]+$`)
	simpleTag   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)
	simpleAttr  = regexp.MustCompile(`^\[([\w-]+)=['"]?([^'"\]]*)['"]?\]$`)
)

func (e *Element) hasClass(c string) bool {
	for _, have := range e.Classes {
		if have == c {
			return true
		}
	}
	return false
}

func (e *Element) attr(name string) (string, bool) {
	switch name {
	case "id":
		return e.ID, e.ID != ""
	case "class":
		return strings.Join(e.Classes, " "), len(e.Classes) > 0
	}
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *Element) matches(by, value string) bool {
	switch by {
	case selenium.ByID:
		return e.ID == value
	case selenium.ByName:
		return e.Attrs["name"] == value && value != ""
	case selenium.ByClassName:
		return e.hasClass(value)
	case selenium.ByTagName:
		return strings.EqualFold(e.Tag, value)
	case selenium.ByLinkText:
		return e.Tag == "a" && strings.TrimSpace(e.InnerText) == value
	case selenium.ByPartialLinkText:
		return e.Tag == "a" && strings.Contains(e.InnerText, value)
	case selenium.ByCSSSelector:
		switch {
		case simpleID.MatchString(value):
			return e.ID == value[1:]
		case simpleClass.MatchString(value):
			return e.hasClass(value[1:])
		case simpleTag.MatchString(value):
			return strings.EqualFold(e.Tag, value)
		case simpleAttr.MatchString(value):
			m := simpleAttr.FindStringSubmatch(value)
			v, ok := e.attr(m[1])
			return ok && v == m[2]
		}
	}
	for _, s := range e.Selectors {
		if s == value {
			return true
		}
	}
	return false
}

func (e *Element) check() error {
	if e.Stale {
		return wdError("stale element reference", "element %q is no longer attached to the DOM", e.ID)
	}
	return nil
}

func (e *Element) interactable() error {
	if err := e.check(); err != nil {
		return err
	}
	if e.Hidden || e.Disabled {
		return wdError("element not interactable", "element %q is not interactable", e.ID)
	}
	return nil
}

func (e *Element) siblings(pred func(*Element) bool) []*Element {
	var out []*Element
	var walk func(es []*Element)
	walk = func(es []*Element) {
		for _, o := range es {
			if pred(o) {
				out = append(out, o)
			}
			walk(o.Children)
		}
	}
	if e.d != nil {
		walk(e.d.page().Elements)
	}
	return out
}

func (e *Element) Click() error {
	if err := e.interactable(); err != nil {
		return err
	}
	e.Clicks++
	switch {
	case e.Tag == "input" && e.Attrs["type"] == "checkbox":
		e.Selected = !e.Selected
	case e.Tag == "input" && e.Attrs["type"] == "radio":
		for _, o := range e.siblings(func(o *Element) bool {
			return o.Tag == "input" && o.Attrs["type"] == "radio" && o.Attrs["name"] == e.Attrs["name"]
		}) {
			o.Selected = false
		}
		e.Selected = true
	case e.Tag == "option":
		if e.parent != nil {
			if _, multi := e.parent.Attrs["multiple"]; multi {
				e.Selected = !e.Selected
				break
			}
			for _, o := range e.parent.Children {
				o.Selected = false
			}
		}
		e.Selected = true
	}
	if e.OnClick != nil {
		return e.OnClick(e.d, e)
	}
	if href, ok := e.Attrs["href"]; ok && e.Tag == "a" && e.d != nil {
		e.d.Navigate(e.d.resolve(href))
	}
	return nil
}

func (d *Driver) resolve(ref string) string {
	cur, _ := d.CurrentURL()
	base, err := url.Parse(cur)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

func (e *Element) SendKeys(keys string) error {
	if err := e.interactable(); err != nil {
		return err
	}
	e.Keys = append(e.Keys, keys)
	submit := strings.ContainsAny(keys, selenium.EnterKey+selenium.ReturnKey)
	text := strings.NewReplacer(selenium.EnterKey, "", selenium.ReturnKey, "").Replace(keys)
	if strings.HasPrefix(text, selenium.ControlKey) {
		text = ""
	}
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs["value"] += text
	if submit {
		return e.Submit()
	}
	return nil
}

func (e *Element) Submit() error {
	if err := e.check(); err != nil {
		return err
	}
	for n := e; n != nil; n = n.parent {
		if n.OnSubmit != nil {
			return n.OnSubmit(e.d, e)
		}
	}
	return nil
}

func (e *Element) Clear() error {
	if err := e.interactable(); err != nil {
		return err
	}
	if e.Attrs != nil {
		e.Attrs["value"] = ""
	}
	return nil
}

func (e *Element) MoveTo(x, y int) error {
	if err := e.check(); err != nil {
		return err
	}
	if e.d != nil {
		e.d.hovered = e
		e.d.Actions = append(e.d.Actions, fmt.Sprintf("moveto:%s:%d,%d", e.ID, x, y))
	}
	return nil
}

func (e *Element) FindElement(by, value string) (selenium.WebElement, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	es := find(e.Children, by, value, false)
	if len(es) == 0 {
		return nil, NoSuchElement(by, value)
	}
	return es[0], nil
}

func (e *Element) FindElements(by, value string) ([]selenium.WebElement, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return asWebElements(find(e.Children, by, value, true)), nil
}

func (e *Element) TagName() (string, error) {
	return e.Tag, e.check()
}

func (e *Element) Text() (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	if e.Hidden {
		return "", nil
	}
	return e.InnerText, nil
}

func (e *Element) IsSelected() (bool, error) {
	return e.Selected, e.check()
}

func (e *Element) IsEnabled() (bool, error) {
	return !e.Disabled, e.check()
}

func (e *Element) IsDisplayed() (bool, error) {
	if err := e.check(); err != nil {
		return false, err
	}
	e.displayChecks++
	if e.displayChecks <= e.VisibleAfter {
		return false, nil
	}
	return !e.Hidden, nil
}

// GetAttribute mirrors the remote client: an absent attribute is an error.
func (e *Element) GetAttribute(name string) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	if name == "checked" || name == "selected" {
		if e.Selected {
			return "true", nil
		}
		return "", errors.New("nil return value")
	}
	if v, ok := e.attr(name); ok {
		return v, nil
	}
	return "", errors.New("nil return value")
}

func (e *Element) Location() (*selenium.Point, error) {
	p := e.Loc
	return &p, e.check()
}

func (e *Element) LocationInView() (*selenium.Point, error) {
	return e.Location()
}

func (e *Element) Size() (*selenium.Size, error) {
	s := e.Dim
	return &s, e.check()
}

func (e *Element) CSSProperty(name string) (string, error) {
	return e.CSS[name], e.check()
}

func (e *Element) Screenshot(bool) ([]byte, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if e.d != nil {
		return e.d.Screenshot()
	}
	return nil, nil
}

// Value returns the text typed into the element so far.
func (e *Element) Value() string {
	return e.Attrs["value"]
}
