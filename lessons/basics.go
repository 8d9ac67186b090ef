package lessons

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/action"
	"github.com/wanmail/seleniumcourse/browser"
	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/element"
	"github.com/wanmail/seleniumcourse/runner"
	"github.com/wanmail/seleniumcourse/wait"
)

func basics() []runner.Scenario {
	return []runner.Scenario{
		{Lesson: Basics, Name: "webdriver_setup", Run: webdriverSetup},
		{Lesson: Basics, Name: "locators", Run: locators},
		{Lesson: Basics, Name: "interactions", Run: interactions},
		{Lesson: Basics, Name: "navigation_basics", Run: navigationBasics},
	}
}

const indexTitle = "Selenium Course Sandbox"

func webdriverSetup(ctx context.Context, s *course.Session) error {
	wd := s.Driver()
	info, err := browser.BrowserInfo(wd)
	if err != nil {
		return fmt.Errorf("reading capabilities: %w", err)
	}
	if info.Name == "" {
		return fmt.Errorf("session reports no browser name")
	}
	glog.Infof("Browser: %s %s on %s", info.Name, info.Version, info.Platform)

	p, err := coursePage(ctx, s, "")
	if err != nil {
		return err
	}
	title, err := p.Title()
	if err != nil {
		return err
	}
	if err := expect("title", title, indexTitle); err != nil {
		return err
	}
	u, err := p.URL()
	if err != nil {
		return err
	}
	glog.Infof("Loaded %s (%q)", u, title)

	size, err := browser.NewWindows(wd, s.Wait()).Size()
	if err != nil {
		return fmt.Errorf("reading window size: %w", err)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("window size = %dx%d", size.Width, size.Height)
	}
	return nil
}

// Locators of the practice form, one per strategy.
var formLocators = []struct {
	strategy string
	loc      by.Locator
}{
	{"id", by.ID("name")},
	{"name", by.Name("email")},
	{"class name", by.Class("page-title")},
	{"tag name", by.Tag("textarea")},
	{"link text", by.LinkText("Back to the course index")},
	{"partial link text", by.PartialLinkText("course index")},
	{"css selector", by.CSS("[data-test=submit]")},
	{"xpath", by.XPath("//form[@id='practice-form']//input[@type='checkbox']")},
	{"text", by.TextIs("button", "Send")},
}

func locators(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "form")
	if err != nil {
		return err
	}
	for _, fl := range formLocators {
		if _, err := p.Find(ctx, fl.loc); err != nil {
			return fmt.Errorf("locating by %s: %w", fl.strategy, err)
		}
	}

	heading, err := textOf(ctx, p, by.Class("page-title"))
	if err != nil {
		return err
	}
	if err := expect("heading", heading, "Practice Form"); err != nil {
		return err
	}

	fields, err := p.FindAll(ctx, by.Class("form-control"))
	if err != nil {
		return err
	}
	if len(fields) != 3 {
		return fmt.Errorf("found %d form controls, want 3", len(fields))
	}

	// Searching inside an element only looks at its descendants.
	form, err := p.Find(ctx, by.ID("practice-form"))
	if err != nil {
		return err
	}
	inputs, err := by.Tag("input").FindAllIn(form)
	if err != nil {
		return err
	}
	if len(inputs) != 3 {
		return fmt.Errorf("form holds %d inputs, want 3", len(inputs))
	}
	return nil
}

func interactions(ctx context.Context, s *course.Session) error {
	if err := fillForm(ctx, s, "Ada", "ada@example.com", "Hello from the course", true); err != nil {
		return err
	}
	return mouseAndKeyboard(ctx, s)
}

func fillForm(ctx context.Context, s *course.Session, name, email, message string, subscribe bool) error {
	p, err := coursePage(ctx, s, "form")
	if err != nil {
		return err
	}
	for _, f := range []struct {
		loc   by.Locator
		value string
	}{
		{by.ID("name"), name},
		{by.ID("email"), email},
		{by.ID("message"), message},
	} {
		if err := p.Type(ctx, f.loc, f.value); err != nil {
			return err
		}
	}
	box, err := p.Find(ctx, by.ID("subscribe"))
	if err != nil {
		return err
	}
	if err := element.SetChecked(box, subscribe); err != nil {
		return fmt.Errorf("ticking subscribe: %w", err)
	}
	if err := p.Click(ctx, by.ID("submit")); err != nil {
		return err
	}

	if _, err := wait.Until(ctx, s.Wait(), s.Driver(), wait.TextPresent(by.ID("result"), "Hello, "+name+"!")); err != nil {
		return fmt.Errorf("waiting for the submitted form: %w", err)
	}
	got, err := textOf(ctx, p, by.ID("email-result"))
	if err != nil {
		return err
	}
	if err := expect("submitted email", got, email); err != nil {
		return err
	}
	want := "Not subscribed"
	if subscribe {
		want = "Subscribed"
	}
	got, err = textOf(ctx, p, by.ID("subscribed"))
	if err != nil {
		return err
	}
	return expect("subscription", got, want)
}

func mouseAndKeyboard(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "actions")
	if err != nil {
		return err
	}
	wd := s.Driver()
	get := func(id string) (selenium.WebElement, error) { return p.Find(ctx, by.ID(id)) }

	hover, err := get("hover-target")
	if err != nil {
		return err
	}
	if err := action.Hover(wd, hover); err != nil {
		return err
	}
	if _, err := p.FindVisible(ctx, by.ID("tooltip")); err != nil {
		return fmt.Errorf("tooltip after hover: %w", err)
	}

	result := by.ID("action-result")
	double, err := get("double")
	if err != nil {
		return err
	}
	if err := action.New(wd).MoveTo(double, 0, 0).DoubleClick().Perform(); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.TextPresent(result, "Double clicked")); err != nil {
		return err
	}

	menu, err := get("context")
	if err != nil {
		return err
	}
	if err := action.New(wd).MoveTo(menu, 0, 0).ContextClick().Perform(); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.TextPresent(result, "Context menu opened")); err != nil {
		return err
	}

	src, err := get("draggable")
	if err != nil {
		return err
	}
	dst, err := get("droppable")
	if err != nil {
		return err
	}
	if err := action.New(wd).DragAndDrop(src, dst).Perform(); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.TextPresent(by.ID("droppable"), "Dropped!")); err != nil {
		return err
	}

	keys, err := get("keys")
	if err != nil {
		return err
	}
	if err := keys.SendKeys("q"); err != nil {
		return err
	}
	el, err := wait.Until(ctx, s.Wait(), wd, wait.TextPresent(by.ID("key-result"), "You entered:"))
	if err != nil {
		return err
	}
	got, err := el.Text()
	if err != nil {
		return err
	}
	return expect("key result", strings.TrimSpace(got), "You entered: Q")
}

func navigationBasics(ctx context.Context, s *course.Session) error {
	index, err := siteURL(s, CourseSite, "")
	if err != nil {
		return err
	}
	form, err := siteURL(s, CourseSite, "form")
	if err != nil {
		return err
	}
	wd := s.Driver()
	nav := browser.NewNavigator(wd, s.Wait())

	if err := nav.Go(ctx, index); err != nil {
		return err
	}
	doc, err := browser.Document(wd)
	if err != nil {
		return fmt.Errorf("parsing page source: %w", err)
	}
	links := browser.Links(doc, index)
	found := false
	for _, l := range links {
		if l.URL == form {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("index has no link to %s among %d links", form, len(links))
	}

	if err := nav.Go(ctx, form); err != nil {
		return err
	}
	steps := []struct {
		what  string
		move  func(context.Context) error
		title string
	}{
		{"back", nav.Back, indexTitle},
		{"forward", nav.Forward, "Practice Form"},
		{"refresh", nav.Refresh, "Practice Form"},
	}
	for _, st := range steps {
		if err := st.move(ctx); err != nil {
			return err
		}
		if _, err := wait.Until(ctx, s.Wait(), wd, wait.TitleIs(st.title)); err != nil {
			return fmt.Errorf("after %s: %w", st.what, err)
		}
	}
	return nil
}
