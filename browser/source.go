package browser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tebeka/selenium"
)

// Document parses the current page source. The source is the live DOM
// serialised by the browser, so it includes script-generated nodes.
func Document(wd selenium.WebDriver) (*goquery.Document, error) {
	src, err := wd.PageSource()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(src))
}

// Link is an anchor found in a page.
type Link struct {
	Text string
	URL  string
}

// Links returns every anchor of doc with its href resolved against base.
// Anchors whose href does not parse are skipped.
func Links(doc *goquery.Document, base string) []Link {
	b, err := url.Parse(base)
	if err != nil {
		b = &url.URL{}
	}
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := b.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, Link{Text: strings.Join(strings.Fields(s.Text()), " "), URL: u.String()})
	})
	return links
}
