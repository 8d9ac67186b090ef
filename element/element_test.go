package element

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/internal/fakewd"
	"github.com/wanmail/seleniumcourse/wait"
)

const pageURL = "http://example.test/controls"

func option(value, text string, selected bool) *fakewd.Element {
	return &fakewd.Element{Tag: "option", InnerText: text, Selected: selected, Attrs: map[string]string{"value": value}}
}

func radio(name, value string) *fakewd.Element {
	return &fakewd.Element{Tag: "input", Attrs: map[string]string{"type": "radio", "name": name, "value": value}}
}

func cell(tag, text string) *fakewd.Element {
	return &fakewd.Element{Tag: tag, InnerText: text}
}

func row(tag string, texts ...string) *fakewd.Element {
	tr := &fakewd.Element{Tag: "tr"}
	for _, t := range texts {
		tr.Children = append(tr.Children, cell(tag, t))
	}
	return tr
}

func controls() *fakewd.Driver {
	d := fakewd.New(map[string]*fakewd.Page{
		pageURL: {
			Title: "Controls",
			Elements: []*fakewd.Element{
				{ID: "country", Tag: "select", Children: []*fakewd.Element{
					option("us", "United States", true),
					option("uk", "United  Kingdom", false),
					option("de", "Germany", false),
				}},
				{ID: "langs", Tag: "select", Attrs: map[string]string{"multiple": "true"}, Children: []*fakewd.Element{
					option("go", "Go", false),
					option("py", "Python", true),
					option("js", "JavaScript", false),
				}},
				{ID: "agree", Tag: "input", Attrs: map[string]string{"type": "checkbox"}},
				radio("size", "s"),
				radio("size", "m"),
				radio("size", "l"),
				{ID: "people", Tag: "table", Children: []*fakewd.Element{
					row("th", "Name", "Age"),
					row("td", "Ada", "36"),
					row("td", "Linus", "28"),
				}},
				{ID: "content", Tag: "iframe"},
				{ID: "file", Tag: "a", InnerText: "report.pdf", Attrs: map[string]string{"href": "http://example.test/report.pdf", "download": ""},
					CSS: map[string]string{"color": "rgb(0, 0, 238)"}, Loc: selenium.Point{X: 10, Y: 20}, Dim: selenium.Size{Width: 80, Height: 16}},
			},
			Frames: map[string]*fakewd.Page{
				"content": {Elements: []*fakewd.Element{{ID: "inner", Tag: "p", InnerText: "inside the frame"}}},
			},
			FrameOrder: []string{"content"},
		},
	})
	d.Get(pageURL)
	return d
}

func mustFind(t *testing.T, d *fakewd.Driver, id string) selenium.WebElement {
	t.Helper()
	el, err := d.FindElement(selenium.ByID, id)
	require.NoError(t, err)
	return el
}

func TestNewSelectRejectsOtherTags(t *testing.T) {
	d := controls()
	_, err := NewSelect(mustFind(t, d, "agree"))
	assert.EqualError(t, err, `element should have been "select" but was "input"`)
}

func TestSingleSelect(t *testing.T) {
	d := controls()
	s, err := NewSelect(mustFind(t, d, "country"))
	require.NoError(t, err)
	assert.False(t, s.IsMultiple())

	got, err := s.SelectedText()
	require.NoError(t, err)
	assert.Equal(t, "United States", got)

	tests := []struct {
		desc   string
		choose func() error
		want   string
	}{
		{"by visible text", func() error { return s.SelectByVisibleText("United Kingdom") }, "United  Kingdom"},
		{"by value", func() error { return s.SelectByValue("de") }, "Germany"},
		{"by index", func() error { return s.SelectByIndex(0) }, "United States"},
	}
	for _, test := range tests {
		require.NoError(t, test.choose(), test.desc)
		sel, err := s.SelectedOptions()
		require.NoError(t, err, test.desc)
		require.Len(t, sel, 1, test.desc)
		got, err := sel[0].Text()
		require.NoError(t, err)
		assert.Equal(t, test.want, got, test.desc)
	}

	assert.Error(t, s.SelectByValue("fr"))
	assert.Error(t, s.DeselectAll(), "deselecting a single select must fail")
}

func TestMultiSelect(t *testing.T) {
	d := controls()
	s, err := NewSelect(mustFind(t, d, "langs"))
	require.NoError(t, err)
	require.True(t, s.IsMultiple())

	require.NoError(t, s.SelectByValue("go"))
	require.NoError(t, s.SelectByVisibleText("JavaScript"))

	texts := func() []string {
		sel, err := s.SelectedOptions()
		require.NoError(t, err)
		var out []string
		for _, o := range sel {
			txt, _ := o.Text()
			out = append(out, txt)
		}
		return out
	}
	if diff := cmp.Diff([]string{"Go", "Python", "JavaScript"}, texts()); diff != "" {
		t.Errorf("selected options mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.DeselectByIndex(1))
	if diff := cmp.Diff([]string{"Go", "JavaScript"}, texts()); diff != "" {
		t.Errorf("after DeselectByIndex (-want +got):\n%s", diff)
	}

	require.NoError(t, s.DeselectAll())
	assert.Empty(t, texts())
	_, err = s.FirstSelected()
	assert.Error(t, err)
}

func TestCheckboxAndRadio(t *testing.T) {
	d := controls()
	box := mustFind(t, d, "agree")

	require.NoError(t, SetChecked(box, true))
	require.NoError(t, SetChecked(box, true))
	checked, err := box.IsSelected()
	require.NoError(t, err)
	assert.True(t, checked)
	assert.Equal(t, 1, box.(*fakewd.Element).Clicks, "SetChecked must not click an already checked box")

	now, err := Toggle(box)
	require.NoError(t, err)
	assert.False(t, now)

	chosen, err := ChosenRadio(d, "size")
	require.NoError(t, err)
	assert.Equal(t, "", chosen)

	require.NoError(t, ChooseRadio(d, "size", "m"))
	require.NoError(t, ChooseRadio(d, "size", "l"))
	chosen, err = ChosenRadio(d, "size")
	require.NoError(t, err)
	assert.Equal(t, "l", chosen)

	assert.Error(t, ChooseRadio(d, "size", "xl"))
	assert.Error(t, ChooseRadio(d, "colour", "red"))
}

func TestTable(t *testing.T) {
	d := controls()
	tbl, err := NewTable(mustFind(t, d, "people"))
	require.NoError(t, err)

	headers, err := tbl.Headers()
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age"}, headers)

	rows, err := tbl.Rows()
	require.NoError(t, err)
	if diff := cmp.Diff([][]string{{"Ada", "36"}, {"Linus", "28"}}, rows); diff != "" {
		t.Errorf("Rows() mismatch (-want +got):\n%s", diff)
	}

	ages, err := tbl.Column("Age")
	require.NoError(t, err)
	assert.Equal(t, []string{"36", "28"}, ages)

	r, err := tbl.FindRow("Linus")
	require.NoError(t, err)
	assert.Equal(t, []string{"Linus", "28"}, r)

	c, err := tbl.Cell(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "36", c)

	_, err = tbl.Cell(5, 0)
	assert.Error(t, err)
	_, err = tbl.Column("Email")
	assert.Error(t, err)
}

func TestFrames(t *testing.T) {
	tests := []struct {
		desc  string
		frame interface{}
	}{
		{"by id", "content"},
		{"by index", 0},
		{"by locator", by.CSS("#content")},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			d := controls()
			f := NewFrames(d)

			var got string
			err := f.Within(test.frame, func() error {
				el, err := d.FindElement(selenium.ByID, "inner")
				if err != nil {
					return err
				}
				got, err = el.Text()
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, "inside the frame", got)

			_, err = d.FindElement(selenium.ByID, "inner")
			assert.True(t, wait.IsNoSuchElement(err), "Within must return to the top document")
		})
	}
}

func TestFramesMissing(t *testing.T) {
	f := NewFrames(controls())
	assert.Error(t, f.Enter("nope"))
	assert.Error(t, f.Enter(3))
	assert.Error(t, f.Enter(3.5))
}

func TestAlerts(t *testing.T) {
	ctx := context.Background()
	d := controls()
	a := NewAlerts(d, wait.New(100*time.Millisecond, wait.WithInterval(5*time.Millisecond)))

	_, err := a.Accept(ctx)
	assert.ErrorIs(t, err, wait.ErrTimeout)

	d.ShowAlert("Hello world")
	text, err := a.Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)

	d.ShowAlert("Are you sure?")
	text, err = a.Dismiss(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Are you sure?", text)

	d.ShowAlert("Your name?")
	text, err = a.Prompt(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Your name?", text)
	assert.Equal(t, "Ada", d.PromptText)

	assert.Equal(t, []string{"accepted", "dismissed", "accepted"}, d.AlertResults)
}

func TestDescribe(t *testing.T) {
	d := controls()
	el := mustFind(t, d, "file")

	got, err := Describe(el, []string{"href", "download", "title"}, []string{"color"})
	require.NoError(t, err)
	want := Info{
		Tag:        "a",
		Text:       "report.pdf",
		Attributes: map[string]string{"href": "http://example.test/report.pdf", "download": ""},
		CSS:        map[string]string{"color": "rgb(0, 0, 238)"},
		Location:   selenium.Point{X: 10, Y: 20},
		Size:       selenium.Size{Width: 80, Height: 16},
		Displayed:  true,
		Enabled:    true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
	}

	href, err := Href(el)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/report.pdf", href)
}
