package lessons

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/dataset"
	"github.com/wanmail/seleniumcourse/internal/fakewd"
	"github.com/wanmail/seleniumcourse/report"
	"github.com/wanmail/seleniumcourse/runner"
)

const courseBase = "http://sandbox.test/course/"

func names(ss []runner.Scenario) []string {
	var out []string
	for _, s := range ss {
		out = append(out, s.FullName())
	}
	return out
}

func TestAllInCourseOrder(t *testing.T) {
	env := Env{Data: dataset.Set{Queries: []string{"Go", "Selenium"}}}
	want := []string{
		"01_basics/webdriver_setup",
		"01_basics/locators",
		"01_basics/interactions",
		"01_basics/navigation_basics",
		"02_intermediate/wait_strategies",
		"02_intermediate/custom_conditions",
		"02_intermediate/element_types",
		"02_intermediate/tables_frames_alerts",
		"02_intermediate/browser_navigation",
		"03_advanced/page_object_model",
		"03_advanced/data_driven/Go",
		"03_advanced/data_driven/Selenium",
		"03_advanced/screenshots",
		"03_advanced/multiple_tabs",
		"03_advanced/cookies_and_js",
		"03_advanced/proxy",
		"04_real_world/google_search",
		"04_real_world/gmail_signin",
		"04_real_world/facebook_login_error",
		"04_real_world/amazon_add_to_cart",
	}
	if diff := cmp.Diff(want, names(All(env))); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestAllDefaultsToBuiltInData(t *testing.T) {
	scenarios, err := runner.Select(All(Env{}), []string{"03_advanced/data_driven"})
	require.NoError(t, err)
	require.Len(t, scenarios, len(dataset.SearchQueries))
	for i, q := range dataset.SearchQueries {
		assert.Equal(t, "data_driven/"+q, scenarios[i].Name)
	}
}

func TestLessonsAreKnownLevels(t *testing.T) {
	for _, sc := range All(Env{}) {
		assert.Contains(t, Levels, sc.Lesson, sc.FullName())
		assert.NotNil(t, sc.Run, sc.FullName())
	}
}

func TestProxyConfig(t *testing.T) {
	tests := []struct {
		desc      string
		addr      string
		wantProxy string
		wantURL   string
	}{
		{"no proxy", "", "", courseBase},
		{"proxy", "127.0.0.1:1080", "127.0.0.1:1080", "http://course.test/course/"},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			cfg := course.DefaultConfig()
			cfg.BaseURLs["course"] = courseBase
			proxyConfig(Env{ProxyAddr: test.addr})(&cfg)
			assert.Equal(t, test.wantProxy, cfg.Proxy)
			assert.Equal(t, test.wantURL, cfg.BaseURLs["course"])
		})
	}
}

// runWith runs the selected scenarios on fake sessions built by pages.
func runWith(t *testing.T, cfg course.Config, env Env, pages func() map[string]*fakewd.Page, patterns ...string) *report.Run {
	t.Helper()
	scenarios, err := runner.Select(All(env), patterns)
	require.NoError(t, err)
	cfg.ScreenshotDir = t.TempDir()
	r := runner.New(cfg)
	r.NewSession = func(_ context.Context, cfg course.Config, _ ...course.SessionOption) (*course.Session, error) {
		return course.Attach(cfg, fakewd.New(pages())), nil
	}
	return r.Run(context.Background(), scenarios)
}

func TestSkipsWithoutSandbox(t *testing.T) {
	cfg := course.DefaultConfig()
	run := runWith(t, cfg, Env{}, func() map[string]*fakewd.Page { return nil },
		"01_basics/locators", "03_advanced/proxy")
	require.Len(t, run.Results, 2)
	for _, res := range run.Results {
		assert.Equal(t, report.Skipped, res.Status, res.Name)
	}
	assert.Contains(t, run.Results[0].Error, `no base URL for site "course"`)
	assert.Contains(t, run.Results[1].Error, "no SOCKS5 proxy")
}

func el(id, tag, text string, attrs map[string]string, children ...*fakewd.Element) *fakewd.Element {
	return &fakewd.Element{ID: id, Tag: tag, InnerText: text, Attrs: attrs, Children: children}
}

// formPages fakes the practice form. Sending it leads to a confirmation
// page built from the typed values.
func formPages() map[string]*fakewd.Page {
	name := el("name", "input", "", map[string]string{"name": "name", "type": "text"})
	name.Classes = []string{"form-control"}
	email := el("email", "input", "", map[string]string{"name": "email", "type": "email"})
	email.Classes = []string{"form-control"}
	message := el("message", "textarea", "", map[string]string{"name": "message"})
	message.Classes = []string{"form-control"}
	subscribe := el("subscribe", "input", "", map[string]string{"name": "subscribe", "type": "checkbox", "value": "yes"})
	subscribe.Selectors = []string{"//form[@id='practice-form']//input[@type='checkbox']"}
	submit := el("submit", "button", "Send", map[string]string{"type": "submit", "data-test": "submit"})
	submit.Selectors = []string{`//button[normalize-space(.)="Send"]`}
	heading := el("title", "h1", "Practice Form", nil)
	heading.Classes = []string{"page-title"}
	index := el("index-link", "a", "Back to the course index", map[string]string{"href": "/course/"})

	pages := map[string]*fakewd.Page{
		courseBase + "form": {
			Title: "Practice Form",
			Elements: []*fakewd.Element{
				heading,
				el("practice-form", "form", "", nil, name, email, message, subscribe, submit),
				index,
			},
		},
	}
	submit.OnClick = func(d *fakewd.Driver, _ *fakewd.Element) error {
		subscribed := "Not subscribed"
		if subscribe.Selected {
			subscribed = "Subscribed"
		}
		u := courseBase + "form/sent"
		d.Pages[u] = &fakewd.Page{
			Title: "Form submitted",
			Elements: []*fakewd.Element{
				el("result", "p", fmt.Sprintf("Hello, %s!", name.Attrs["value"]), nil),
				el("email-result", "p", email.Attrs["value"], nil),
				el("message-result", "p", message.Attrs["value"], nil),
				el("subscribed", "p", subscribed, nil),
			},
		}
		d.Navigate(u)
		return nil
	}
	return pages
}

func sandboxConfig() course.Config {
	cfg := course.DefaultConfig()
	cfg.BaseURLs["course"] = courseBase
	return cfg
}

func TestLocators(t *testing.T) {
	run := runWith(t, sandboxConfig(), Env{}, formPages, "01_basics/locators")
	require.Len(t, run.Results, 1)
	assert.Equal(t, report.Passed, run.Results[0].Status, run.Results[0].Error)
}

func TestPageObjectModel(t *testing.T) {
	run := runWith(t, sandboxConfig(), Env{}, formPages, "page_object_model")
	require.Len(t, run.Results, 1)
	assert.Equal(t, report.Passed, run.Results[0].Status, run.Results[0].Error)
}

func TestFillForm(t *testing.T) {
	tests := []struct {
		desc      string
		subscribe bool
	}{
		{"subscribed", true},
		{"not subscribed", false},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			wd := fakewd.New(formPages())
			s := course.Attach(sandboxConfig(), wd)
			err := fillForm(context.Background(), s, "Ada", "ada@example.com", "hi", test.subscribe)
			require.NoError(t, err)
			u, err := wd.CurrentURL()
			require.NoError(t, err)
			assert.Equal(t, courseBase+"form/sent", u)
		})
	}
}

func TestFillFormReportsWrongGreeting(t *testing.T) {
	pages := formPages()
	form := pages[courseBase+"form"]
	// Drop the submit handler so the form never leaves the page.
	form.Elements[1].Children[4].OnClick = func(*fakewd.Driver, *fakewd.Element) error { return nil }

	cfg := sandboxConfig()
	cfg.ExplicitWait = 1
	s := course.Attach(cfg, fakewd.New(pages))
	err := fillForm(context.Background(), s, "Ada", "ada@example.com", "hi", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for the submitted form")
}

func TestExpect(t *testing.T) {
	assert.NoError(t, expect("title", "a", "a"))
	assert.EqualError(t, expect("title", "a", "b"), `title = "a", want "b"`)
	assert.NoError(t, expectContains("title", "abc", "b"))
	assert.Error(t, expectContains("title", "abc", "d"))
}

func TestFirst(t *testing.T) {
	assert.Equal(t, "x", first(nil, "x"))
	assert.Equal(t, "a", first([]string{"a", "b"}, "x"))
}
