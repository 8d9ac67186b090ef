package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetQueries     = "queries"
	sheetProducts    = "products"
	sheetCredentials = "credentials"
)

func loadWorkbook(path string) (Set, error) {
	var s Set
	f, err := excelize.OpenFile(path)
	if err != nil {
		return s, err
	}
	defer f.Close()

	sheets := map[string]bool{}
	for _, name := range f.GetSheetList() {
		sheets[strings.ToLower(name)] = true
	}
	// rows returns the data rows of sheet, without its header row.
	rows := func(sheet string) ([][]string, error) {
		if !sheets[sheet] {
			return nil, nil
		}
		rs, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if len(rs) < 2 {
			return nil, nil
		}
		return rs[1:], nil
	}

	for _, sheet := range []string{sheetQueries, sheetProducts} {
		rs, err := rows(sheet)
		if err != nil {
			return s, err
		}
		var vals []string
		for _, r := range rs {
			if len(r) > 0 && strings.TrimSpace(r[0]) != "" {
				vals = append(vals, strings.TrimSpace(r[0]))
			}
		}
		if sheet == sheetQueries {
			s.Queries = vals
		} else {
			s.Products = vals
		}
	}

	rs, err := rows(sheetCredentials)
	if err != nil {
		return s, err
	}
	for i, r := range rs {
		if len(r) < 2 {
			return s, fmt.Errorf("sheet %q row %d: want email and password, got %d cells", sheetCredentials, i+2, len(r))
		}
		s.Credentials = append(s.Credentials, Credential{Email: strings.TrimSpace(r[0]), Password: r[1]})
	}
	return s, nil
}

// WriteWorkbook saves s as a workbook that Load reads back.
func WriteWorkbook(s Set, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	write := func(sheet string, header []string, rows [][]string) error {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		all := append([][]string{header}, rows...)
		for i, r := range all {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			vals := make([]interface{}, len(r))
			for j, v := range r {
				vals[j] = v
			}
			if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
				return err
			}
		}
		return nil
	}
	column := func(vs []string) [][]string {
		out := make([][]string, len(vs))
		for i, v := range vs {
			out[i] = []string{v}
		}
		return out
	}
	var creds [][]string
	for _, c := range s.Credentials {
		creds = append(creds, []string{c.Email, c.Password})
	}

	if err := write(sheetQueries, []string{"query"}, column(s.Queries)); err != nil {
		return err
	}
	if err := write(sheetProducts, []string{"product"}, column(s.Products)); err != nil {
		return err
	}
	if err := write(sheetCredentials, []string{"email", "password"}, creds); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}
