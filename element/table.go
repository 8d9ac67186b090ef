package element

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
)

// Table reads an HTML <table> as text.
type Table struct {
	el selenium.WebElement
}

// NewTable wraps el, which must be a <table> element.
func NewTable(el selenium.WebElement) (*Table, error) {
	tag, err := el.TagName()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(tag, "table") {
		return nil, fmt.Errorf(`element should have been "table" but was %q`, tag)
	}
	return &Table{el: el}, nil
}

func texts(els []selenium.WebElement) ([]string, error) {
	out := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			return nil, err
		}
		out = append(out, strings.TrimSpace(t))
	}
	return out, nil
}

// Headers returns the text of every <th>.
func (t *Table) Headers() ([]string, error) {
	ths, err := t.el.FindElements(selenium.ByTagName, "th")
	if err != nil {
		return nil, err
	}
	return texts(ths)
}

// Rows returns the <td> texts of each row. Rows without data cells, such as
// the header row, are skipped.
func (t *Table) Rows() ([][]string, error) {
	trs, err := t.el.FindElements(selenium.ByTagName, "tr")
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, tr := range trs {
		tds, err := tr.FindElements(selenium.ByTagName, "td")
		if err != nil {
			return nil, err
		}
		if len(tds) == 0 {
			continue
		}
		cells, err := texts(tds)
		if err != nil {
			return nil, err
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// Cell returns the text at data row r, column c, both counted from zero.
func (t *Table) Cell(r, c int) (string, error) {
	rows, err := t.Rows()
	if err != nil {
		return "", err
	}
	if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
		return "", fmt.Errorf("cell (%d, %d) out of range", r, c)
	}
	return rows[r][c], nil
}

// Column returns every value under the header named name.
func (t *Table) Column(name string) ([]string, error) {
	headers, err := t.Headers()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, h := range headers {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("no column %q in %q", name, headers)
	}
	rows, err := t.Rows()
	if err != nil {
		return nil, err
	}
	col := make([]string, 0, len(rows))
	for _, r := range rows {
		if idx < len(r) {
			col = append(col, r[idx])
		}
	}
	return col, nil
}

// FindRow returns the first data row with a cell containing text.
func (t *Table) FindRow(text string) ([]string, error) {
	rows, err := t.Rows()
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		for _, c := range r {
			if strings.Contains(c, text) {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("no row contains %q", text)
}
