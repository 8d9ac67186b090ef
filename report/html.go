package report

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"time"

	"github.com/flosch/pongo2/v6"
)

//go:embed report.html.pongo2
var htmlSource string

var htmlTemplate = pongo2.Must(pongo2.FromString(htmlSource))

type htmlRow struct {
	Name       string
	Lesson     string
	Status     string
	Duration   string
	Error      string
	Screenshot string
}

// RenderHTML returns the report page. Screenshot links are made relative to
// dir, the directory the page will be written to.
func (r *Run) RenderHTML(dir string) (string, error) {
	r.mu.Lock()
	rows := make([]htmlRow, 0, len(r.Results))
	for _, res := range r.Results {
		shot := res.Screenshot
		if shot != "" {
			if rel, err := filepath.Rel(dir, shot); err == nil {
				shot = filepath.ToSlash(rel)
			}
		}
		rows = append(rows, htmlRow{
			Name:       res.Name,
			Lesson:     res.Lesson,
			Status:     string(res.Status),
			Duration:   res.Duration.Round(10 * time.Millisecond).String(),
			Error:      res.Error,
			Screenshot: shot,
		})
	}
	ctx := pongo2.Context{
		"id":       r.ID,
		"browser":  r.Browser,
		"started":  r.Started.Format("2006-01-02 15:04:05"),
		"duration": r.Finished.Sub(r.Started).Round(time.Millisecond).String(),
		"summary":  r.summaryLocked(),
		"results":  rows,
	}
	r.mu.Unlock()

	out, err := htmlTemplate.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}

// WriteHTML writes the report page to dir and returns the file path.
func (r *Run) WriteHTML(dir string) (string, error) {
	page, err := r.RenderHTML(dir)
	if err != nil {
		return "", err
	}
	return writeFile(dir, r.fileName(".html"), []byte(page))
}
