package lessons

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"net/url"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/browser"
	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/element"
	"github.com/wanmail/seleniumcourse/internal/sandbox"
	"github.com/wanmail/seleniumcourse/page"
	"github.com/wanmail/seleniumcourse/runner"
	"github.com/wanmail/seleniumcourse/sites"
	"github.com/wanmail/seleniumcourse/wait"
)

func advanced(env Env) []runner.Scenario {
	out := []runner.Scenario{
		{Lesson: Advanced, Name: "page_object_model", Run: pageObjectModel},
	}
	out = append(out, runner.Parametrize(runner.Scenario{Lesson: Advanced, Name: "data_driven"}, env.Data.Queries, dataDriven)...)
	return append(out,
		runner.Scenario{Lesson: Advanced, Name: "screenshots", Run: screenshots},
		runner.Scenario{Lesson: Advanced, Name: "multiple_tabs", Run: multipleTabs},
		runner.Scenario{Lesson: Advanced, Name: "cookies_and_js", Run: cookiesAndJS},
		runner.Scenario{Lesson: Advanced, Name: "proxy", Configure: proxyConfig(env), Run: throughProxy},
	)
}

var (
	formName      = by.ID("name")
	formEmail     = by.ID("email")
	formMessage   = by.ID("message")
	formSubscribe = by.ID("subscribe")
	formSubmit    = by.CSS("[data-test=submit]")
	resultGreet   = by.ID("result")
	resultMessage = by.ID("message-result")
)

// formEntry is what a visitor types into the practice form.
type formEntry struct {
	Name, Email, Message string
	Subscribe            bool
}

// practiceForm is the page object of the practice form.
type practiceForm struct {
	*page.Base
	url string
}

func newPracticeForm(s *course.Session) (*practiceForm, error) {
	u, err := siteURL(s, CourseSite, "form")
	if err != nil {
		return nil, err
	}
	return &practiceForm{Base: page.New(s.Driver(), s.PageOptions()...), url: u}, nil
}

func (f *practiceForm) Open(ctx context.Context) error { return f.Base.Open(ctx, f.url) }

// Send fills in e, submits the form and returns the confirmation page.
func (f *practiceForm) Send(ctx context.Context, e formEntry) (*submission, error) {
	for _, fld := range []struct {
		l by.Locator
		v string
	}{{formName, e.Name}, {formEmail, e.Email}, {formMessage, e.Message}} {
		if err := f.Type(ctx, fld.l, fld.v); err != nil {
			return nil, err
		}
	}
	box, err := f.Find(ctx, formSubscribe)
	if err != nil {
		return nil, err
	}
	if err := element.SetChecked(box, e.Subscribe); err != nil {
		return nil, err
	}
	if err := f.Click(ctx, formSubmit); err != nil {
		return nil, err
	}
	sub := &submission{Base: page.New(f.Driver(), f.Options()...)}
	if _, err := sub.FindVisible(ctx, resultGreet); err != nil {
		return nil, fmt.Errorf("form submission: %w", err)
	}
	return sub, nil
}

// submission is the page shown after the practice form was sent.
type submission struct {
	*page.Base
}

func (s *submission) Greeting(ctx context.Context) (string, error) {
	return textOf(ctx, s.Base, resultGreet)
}

func (s *submission) Message(ctx context.Context) (string, error) {
	return textOf(ctx, s.Base, resultMessage)
}

func pageObjectModel(ctx context.Context, s *course.Session) error {
	form, err := newPracticeForm(s)
	if err != nil {
		return err
	}
	entries := []formEntry{
		{Name: "Grace", Email: "grace@example.com", Message: "Page objects keep locators in one place"},
		{Name: "Linus", Email: "linus@example.com", Message: "<b>not bold</b>", Subscribe: true},
	}
	for _, e := range entries {
		if err := form.Open(ctx); err != nil {
			return err
		}
		sub, err := form.Send(ctx, e)
		if err != nil {
			return err
		}
		greet, err := sub.Greeting(ctx)
		if err != nil {
			return err
		}
		if err := expect("greeting", greet, "Hello, "+e.Name+"!"); err != nil {
			return err
		}
		msg, err := sub.Message(ctx)
		if err != nil {
			return err
		}
		if err := expect("message", msg, e.Message); err != nil {
			return err
		}
	}
	return nil
}

func dataDriven(ctx context.Context, s *course.Session, query string) error {
	u, err := siteURL(s, "google", "")
	if err != nil {
		return err
	}
	g := sites.NewGoogle(s.Driver(), u, s.PageOptions()...)
	if err := g.Open(ctx); err != nil {
		return err
	}
	res, err := g.Search(ctx, query)
	if err != nil {
		return err
	}
	titles, err := res.Titles(ctx)
	if err != nil {
		return err
	}
	matching := 0
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), strings.ToLower(query)) {
			matching++
		}
	}
	if matching == 0 {
		return fmt.Errorf("none of %d results mention %q", len(titles), query)
	}
	glog.Infof("%q: %d of %d results match", query, matching, len(titles))
	return nil
}

func screenshots(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "form")
	if err != nil {
		return err
	}
	path, err := s.Screenshot("screenshots_lesson")
	if err != nil {
		return err
	}
	if err := checkPNG(path); err != nil {
		return err
	}

	// Pages save under their own screenshot directory.
	pagePath, err := p.Screenshot("practice_form")
	if err != nil {
		return err
	}
	if err := checkPNG(pagePath); err != nil {
		return err
	}

	el, err := p.FindVisible(ctx, by.ID("practice-form"))
	if err != nil {
		return err
	}
	img, err := el.Screenshot(true)
	if err != nil {
		return fmt.Errorf("element screenshot: %w", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return fmt.Errorf("element screenshot: %w", err)
	}
	glog.Infof("Form screenshot is %dx%d", cfg.Width, cfg.Height)
	return nil
}

func checkPNG(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

func multipleTabs(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "tabs")
	if err != nil {
		return err
	}
	wd := s.Driver()
	win := browser.NewWindows(wd, s.Wait())
	main, err := win.Current()
	if err != nil {
		return err
	}
	known, err := win.Handles()
	if err != nil {
		return err
	}

	if err := p.Click(ctx, by.ID("new-tab")); err != nil {
		return err
	}
	opened, err := wait.Until(ctx, s.Wait(), wd, wait.NewWindow(known))
	if err != nil {
		return fmt.Errorf("waiting for the link's tab: %w", err)
	}
	if err := win.SwitchTo(opened); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.TitleIs("New Window")); err != nil {
		return err
	}
	if err := win.CloseCurrent(main); err != nil {
		return err
	}

	form, err := siteURL(s, CourseSite, "form")
	if err != nil {
		return err
	}
	if _, err := win.OpenTab(ctx, form); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.TitleIs("Practice Form")); err != nil {
		return err
	}
	if err := win.CloseCurrent(main); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.NumberOfWindows(1)); err != nil {
		return err
	}
	title, err := wd.Title()
	if err != nil {
		return err
	}
	return expect("title after closing tabs", title, "Windows")
}

func cookiesAndJS(ctx context.Context, s *course.Session) error {
	if _, err := coursePage(ctx, s, "cookies"); err != nil {
		return err
	}
	wd := s.Driver()
	jar := browser.Cookies(wd)
	c, err := jar.Get(sandbox.CookieName)
	if err != nil {
		return fmt.Errorf("reading the server's cookie: %w", err)
	}
	if err := expect(sandbox.CookieName, c.Value, "welcome"); err != nil {
		return err
	}
	if err := jar.Set("lesson", "advanced"); err != nil {
		return err
	}
	m, err := jar.Map()
	if err != nil {
		return err
	}
	if m["lesson"] != "advanced" || m[sandbox.CookieName] != "welcome" {
		return fmt.Errorf("cookies = %v", m)
	}
	if err := browser.NewNavigator(wd, s.Wait()).Refresh(ctx); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.TextPresent(by.ID("cookie-list"), "lesson=advanced")); err != nil {
		return fmt.Errorf("page does not see the new cookie: %w", err)
	}
	if err := jar.Delete("lesson"); err != nil {
		return err
	}
	if err := jar.Clear(); err != nil {
		return err
	}
	if m, err = jar.Map(); err != nil {
		return err
	}
	if len(m) != 0 {
		return fmt.Errorf("cookies left after clearing: %v", m)
	}

	if err := runScripts(wd); err != nil {
		return err
	}
	return consoleMessages(ctx, s)
}

func runScripts(wd selenium.WebDriver) error {
	v, err := wd.ExecuteScript("return document.title;", nil)
	if err != nil {
		return err
	}
	if err := expect("title from script", fmt.Sprint(v), "Cookies"); err != nil {
		return err
	}
	v, err = wd.ExecuteScript("return arguments[0] + arguments[1];", []interface{}{40, 2})
	if err != nil {
		return err
	}
	if n, _ := v.(float64); n != 42 {
		return fmt.Errorf("script sum = %v, want 42", v)
	}
	v, err = wd.ExecuteScriptAsync("var done = arguments[arguments.length - 1]; setTimeout(function() { done('later'); }, 50);", nil)
	if err != nil {
		return fmt.Errorf("async script: %w", err)
	}
	if err := expect("async result", fmt.Sprint(v), "later"); err != nil {
		return err
	}
	if err := browser.HideWebDriver(wd); err != nil {
		return err
	}
	v, err = wd.ExecuteScript("return navigator.webdriver === undefined;", nil)
	if err != nil {
		return err
	}
	if hidden, _ := v.(bool); !hidden {
		return fmt.Errorf("navigator.webdriver still set")
	}
	return nil
}

// consoleMessages reads the browser log. Only Chrome exposes it; other
// browsers just log a warning.
func consoleMessages(ctx context.Context, s *course.Session) error {
	if _, err := coursePage(ctx, s, "console"); err != nil {
		return err
	}
	msgs, err := browser.Logs(s.Driver(), log.Browser, log.Severe)
	if err != nil {
		glog.Warningf("Browser log unavailable: %v", err)
		return nil
	}
	for _, m := range msgs {
		glog.Infof("console %s: %s", m.Level, m.Message)
		if strings.Contains(m.Message, "something went wrong") {
			return nil
		}
	}
	return fmt.Errorf("console error not found among %d severe messages", len(msgs))
}

func proxyConfig(env Env) func(*course.Config) {
	return func(c *course.Config) {
		if env.ProxyAddr == "" {
			return
		}
		c.Proxy = env.ProxyAddr
		if c.BaseURLs == nil {
			c.BaseURLs = map[string]string{}
		}
		c.BaseURLs[CourseSite] = "http://" + ProxyHost + "/course/"
	}
}

func throughProxy(ctx context.Context, s *course.Session) error {
	if s.Config().Proxy == "" {
		return runner.Skip("no SOCKS5 proxy configured")
	}
	p, err := coursePage(ctx, s, "form")
	if err != nil {
		return err
	}
	raw, err := p.URL()
	if err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if err := expect("host", u.Hostname(), ProxyHost); err != nil {
		return err
	}
	heading, err := textOf(ctx, p, by.ID("title"))
	if err != nil {
		return err
	}
	return expect("heading through the proxy", heading, "Practice Form")
}
