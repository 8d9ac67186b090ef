package lessons

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/go-cmp/cmp"
	"github.com/tebeka/selenium"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/browser"
	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/element"
	"github.com/wanmail/seleniumcourse/runner"
	"github.com/wanmail/seleniumcourse/wait"
)

func intermediate() []runner.Scenario {
	return []runner.Scenario{
		{Lesson: Intermediate, Name: "wait_strategies", Run: waitStrategies},
		{Lesson: Intermediate, Name: "custom_conditions", Run: customConditions},
		{Lesson: Intermediate, Name: "element_types", Run: elementTypes},
		{Lesson: Intermediate, Name: "tables_frames_alerts", Run: tablesFramesAlerts},
		{Lesson: Intermediate, Name: "browser_navigation", Run: browserNavigation},
	}
}

func waitStrategies(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "dynamic")
	if err != nil {
		return err
	}
	wd, w := s.Driver(), s.Wait()

	if err := p.Click(ctx, by.ID("start")); err != nil {
		return err
	}
	el, err := wait.Until(ctx, w, wd, wait.VisibilityOf(by.CSS("#finish h4")))
	if err != nil {
		return fmt.Errorf("waiting for the loaded content: %w", err)
	}
	text, err := el.Text()
	if err != nil {
		return err
	}
	if err := expect("loaded text", text, "Hello World!"); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, w, wd, wait.InvisibilityOf(by.ID("loading"))); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, w, wd, wait.Clickable(by.ID("later"))); err != nil {
		return fmt.Errorf("waiting for the input to be enabled: %w", err)
	}
	if _, err := wait.Until(ctx, w, wd, wait.PresenceOf(by.ID("added"))); err != nil {
		return err
	}

	box, err := p.Find(ctx, by.ID("ephemeral"))
	if err != nil {
		return err
	}
	if err := p.Click(ctx, by.ID("remove")); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, w, wd, wait.Staleness(box)); err != nil {
		return fmt.Errorf("waiting for the checkbox to go away: %w", err)
	}
	if _, err := wait.Until(ctx, w, wd, wait.TextPresent(by.ID("message"), "It's gone!")); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, w, wd, wait.TitleIs("Title changed")); err != nil {
		return err
	}

	// A wait that cannot succeed ends in a TimeoutError.
	short := wait.New(300*time.Millisecond, wait.WithInterval(100*time.Millisecond), wait.WithMessage("element that never appears"))
	_, err = wait.Until(ctx, short, wd, wait.PresenceOf(by.ID("never-there")))
	var te *wait.TimeoutError
	if !errors.As(err, &te) {
		return fmt.Errorf("waiting for a missing element returned %v, want a timeout", err)
	}
	glog.Infof("Expected timeout: %v", te)
	return nil
}

// paragraphCount is a hand-written condition: it is done once the page holds
// at least n paragraphs and reports how many it found.
func paragraphCount(n int) wait.Condition[int] {
	return func(wd selenium.WebDriver) (int, bool, error) {
		v, err := wd.ExecuteScript(`return document.querySelectorAll("p.paragraph").length;`, nil)
		if err != nil {
			return 0, false, err
		}
		got, ok := v.(float64)
		if !ok {
			return 0, false, fmt.Errorf("unexpected paragraph count %T", v)
		}
		return int(got), int(got) >= n, nil
	}
}

func customConditions(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "long")
	if err != nil {
		return err
	}
	wd, w := s.Driver(), s.Wait()

	n, err := wait.Until(ctx, w, wd, paragraphCount(80))
	if err != nil {
		return err
	}
	glog.Infof("Long page has %d paragraphs", n)

	ready := wait.All(wait.TitleContains("Scroll"), wait.URLContains("/long"), wait.DocumentReady())
	if _, err := wait.Until(ctx, w, wd, ready); err != nil {
		return fmt.Errorf("combined condition: %w", err)
	}
	either := wait.Any(wait.TitleIs("no such title"), wait.TitleIs("Infinite Scroll"))
	if _, err := wait.Until(ctx, w, wd, either); err != nil {
		return fmt.Errorf("alternative conditions: %w", err)
	}

	els, err := wait.Until(ctx, w, wd, wait.MinimumCount(by.CSS("p.paragraph"), 10))
	if err != nil {
		return err
	}
	last := els[len(els)-1]
	text, err := last.Text()
	if err != nil {
		return err
	}
	if err := expectContains("last paragraph", text, strconv.Itoa(len(els))); err != nil {
		return err
	}

	// The same condition adapts to the driver's own polling.
	if err := wd.WaitWithTimeout(wait.ForSelenium(wait.PresenceOf(by.ID("footer"))), w.Timeout); err != nil {
		return fmt.Errorf("selenium wait: %w", err)
	}
	_, err = p.Find(ctx, by.ID("footer"))
	return err
}

func elementTypes(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "select")
	if err != nil {
		return err
	}
	el, err := p.Find(ctx, by.ID("dropdown"))
	if err != nil {
		return err
	}
	dropdown, err := element.NewSelect(el)
	if err != nil {
		return err
	}
	if err := dropdown.SelectByVisibleText("Option 2"); err != nil {
		return err
	}
	got, err := dropdown.SelectedText()
	if err != nil {
		return err
	}
	if err := expect("dropdown", got, "Option 2"); err != nil {
		return err
	}
	if err := dropdown.SelectByValue("3"); err != nil {
		return err
	}
	if got, err = dropdown.SelectedText(); err != nil {
		return err
	}
	if err := expect("dropdown", got, "Option 3"); err != nil {
		return err
	}
	if err := dropdown.DeselectAll(); err == nil {
		return fmt.Errorf("deselecting a single-choice select succeeded")
	}

	el, err = p.Find(ctx, by.ID("colors"))
	if err != nil {
		return err
	}
	colors, err := element.NewSelect(el)
	if err != nil {
		return err
	}
	if !colors.IsMultiple() {
		return fmt.Errorf("#colors is not a multiple select")
	}
	if err := colors.DeselectAll(); err != nil {
		return err
	}
	for _, v := range []string{"red", "blue"} {
		if err := colors.SelectByValue(v); err != nil {
			return err
		}
	}
	picked, err := colors.SelectedOptions()
	if err != nil {
		return err
	}
	var names []string
	for _, o := range picked {
		t, err := o.Text()
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSpace(t))
	}
	if diff := cmp.Diff([]string{"Red", "Blue"}, names); diff != "" {
		return fmt.Errorf("selected colors mismatch (-want +got):\n%s", diff)
	}

	if p, err = coursePage(ctx, s, "checkboxes"); err != nil {
		return err
	}
	check1, err := p.Find(ctx, by.ID("check1"))
	if err != nil {
		return err
	}
	if err := element.SetChecked(check1, true); err != nil {
		return err
	}
	check2, err := p.Find(ctx, by.ID("check2"))
	if err != nil {
		return err
	}
	on, err := element.Toggle(check2)
	if err != nil {
		return err
	}
	if on {
		return fmt.Errorf("checkbox 2 still checked after toggling")
	}
	if _, err := wait.Until(ctx, s.Wait(), s.Driver(), wait.SelectionIs(check2, false)); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), s.Driver(), wait.Selected(by.ID("check1"))); err != nil {
		return err
	}

	wd := s.Driver()
	if got, err = element.ChosenRadio(wd, "color"); err != nil {
		return err
	}
	if err := expect("default color", got, "red"); err != nil {
		return err
	}
	if err := element.ChooseRadio(wd, "color", "green"); err != nil {
		return err
	}
	if got, err = element.ChosenRadio(wd, "color"); err != nil {
		return err
	}
	if err := expect("chosen color", got, "green"); err != nil {
		return err
	}

	info, err := element.Describe(check1, []string{"type", "name"}, []string{"display"})
	if err != nil {
		return err
	}
	if info.Tag != "input" || info.Attributes["type"] != "checkbox" || !info.Selected {
		return fmt.Errorf("unexpected checkbox description %+v", info)
	}
	return nil
}

func tablesFramesAlerts(ctx context.Context, s *course.Session) error {
	if err := tables(ctx, s); err != nil {
		return err
	}
	if err := frames(ctx, s); err != nil {
		return err
	}
	return alerts(ctx, s)
}

func tables(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "table")
	if err != nil {
		return err
	}
	el, err := p.Find(ctx, by.ID("customers"))
	if err != nil {
		return err
	}
	t, err := element.NewTable(el)
	if err != nil {
		return err
	}
	headers, err := t.Headers()
	if err != nil {
		return err
	}
	if diff := cmp.Diff([]string{"Name", "Country", "Age"}, headers); diff != "" {
		return fmt.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	row, err := t.FindRow("Alfreds Futterkiste")
	if err != nil {
		return err
	}
	if err := expect("country", row[1], "Germany"); err != nil {
		return err
	}
	ages, err := t.Column("Age")
	if err != nil {
		return err
	}
	rows, err := t.Rows()
	if err != nil {
		return err
	}
	if len(ages) != len(rows) {
		return fmt.Errorf("%d ages for %d rows", len(ages), len(rows))
	}
	for _, a := range ages {
		if _, err := strconv.Atoi(a); err != nil {
			return fmt.Errorf("age %q: %w", a, err)
		}
	}
	first, err := t.Cell(0, 0)
	if err != nil {
		return err
	}
	return expect("first cell", first, "Alfreds Futterkiste")
}

func frames(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "frames")
	if err != nil {
		return err
	}
	wd := s.Driver()
	f := element.NewFrames(wd)
	err = f.Within("frameID", func() error {
		heading, err := textOf(ctx, p, by.ID("frame-heading"))
		if err != nil {
			return err
		}
		if err := expect("frame heading", heading, "Inside the frame"); err != nil {
			return err
		}
		return p.Type(ctx, by.ID("frame-input"), "typed in a frame")
	})
	if err != nil {
		return err
	}
	// Back in the top document, the frame content is out of reach.
	if _, err := by.ID("frame-heading").FindIn(wd); err == nil {
		return fmt.Errorf("frame content visible from the top document")
	}
	if _, err := textOf(ctx, p, by.ID("outside")); err != nil {
		return err
	}

	if _, err := wait.Until(ctx, s.Wait(), wd, wait.FrameAvailable(by.Name("frameName"))); err != nil {
		return err
	}
	if _, err := wait.Until(ctx, s.Wait(), wd, wait.ValuePresent(by.ID("frame-input"), "typed")); err != nil {
		return fmt.Errorf("frame kept its input: %w", err)
	}
	return f.Exit()
}

func alerts(ctx context.Context, s *course.Session) error {
	p, err := coursePage(ctx, s, "alerts")
	if err != nil {
		return err
	}
	a := element.NewAlerts(s.Driver(), s.Wait())
	steps := []struct {
		button string
		answer func(context.Context) (string, error)
		text   string
		result string
	}{
		{"alert", a.Accept, "I am a JS Alert", "You successfully clicked an alert"},
		{"confirm", a.Dismiss, "I am a JS Confirm", "You clicked: Cancel"},
		{"prompt", func(ctx context.Context) (string, error) { return a.Prompt(ctx, "Gopher") }, "I am a JS prompt", "You entered: Gopher"},
	}
	for _, st := range steps {
		if err := p.Click(ctx, by.ID(st.button)); err != nil {
			return err
		}
		text, err := st.answer(ctx)
		if err != nil {
			return fmt.Errorf("%s dialog: %w", st.button, err)
		}
		if err := expect(st.button+" text", text, st.text); err != nil {
			return err
		}
		if _, err := wait.Until(ctx, s.Wait(), s.Driver(), wait.TextPresent(by.ID("result"), st.result)); err != nil {
			return fmt.Errorf("%s result: %w", st.button, err)
		}
	}
	return nil
}

func browserNavigation(ctx context.Context, s *course.Session) error {
	wd := s.Driver()
	win := browser.NewWindows(wd, s.Wait())
	if err := win.Resize(1024, 768); err != nil {
		return fmt.Errorf("resizing window: %w", err)
	}
	size, err := win.Size()
	if err != nil {
		return err
	}
	glog.Infof("Window is %dx%d", size.Width, size.Height)

	p, err := coursePage(ctx, s, "long")
	if err != nil {
		return err
	}
	height, err := browser.PageHeight(wd)
	if err != nil {
		return err
	}
	if height <= size.Height {
		return fmt.Errorf("page height %d does not exceed the window", height)
	}
	if err := browser.ScrollToBottom(wd); err != nil {
		return err
	}
	y, err := wd.ExecuteScript("return window.pageYOffset;", nil)
	if err != nil {
		return err
	}
	if off, _ := y.(float64); off <= 0 {
		return fmt.Errorf("page did not scroll (offset %v)", y)
	}

	mid, err := p.Find(ctx, by.XPath("(//p[@class='paragraph'])[40]"))
	if err != nil {
		return err
	}
	if err := browser.ScrollIntoView(wd, mid); err != nil {
		return err
	}
	style, err := browser.Highlight(wd, mid)
	if err != nil {
		return err
	}
	if err := browser.Restore(wd, mid, style); err != nil {
		return err
	}
	info, err := browser.Describe(wd, mid)
	if err != nil {
		return err
	}
	if err := expectContains("paragraph 40", info.Text, "Paragraph 40"); err != nil {
		return err
	}

	// Downloads are plain links; list them from the page source.
	if _, err := coursePage(ctx, s, "download"); err != nil {
		return err
	}
	doc, err := browser.Document(wd)
	if err != nil {
		return err
	}
	n := doc.Find("a.download").Length()
	if n == 0 {
		return fmt.Errorf("download page lists no files")
	}
	glog.Infof("Download page offers %d files", n)

	if s.Config().Maximize {
		return win.Maximize()
	}
	return nil
}
