package sites

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/page"
)

var (
	googleSearchBox  = by.Name("q")
	googleSearchBtn  = by.Name("btnK")
	googleResults    = by.CSS("h3")
	googleGmailLink  = by.LinkText("Gmail")
	googleImagesLink = by.LinkText("Images")
)

// Google is the search home page.
type Google struct {
	*page.Base
	baseURL string
}

// NewGoogle returns the Google home page object rooted at baseURL.
func NewGoogle(wd selenium.WebDriver, baseURL string, opts ...page.Option) *Google {
	return &Google{Base: page.New(wd, opts...), baseURL: baseURL}
}

// Open loads the home page.
func (g *Google) Open(ctx context.Context) error {
	return g.Base.Open(ctx, g.baseURL)
}

// Search types query into the search box, presses Enter and returns the
// results page once at least one result heading is present.
func (g *Google) Search(ctx context.Context, query string) (*GoogleResults, error) {
	if err := g.Type(ctx, googleSearchBox, query+selenium.EnterKey); err != nil {
		return nil, fmt.Errorf("google search %q: %w", query, err)
	}
	r := &GoogleResults{Base: page.New(g.Driver(), g.Options()...)}
	if _, err := r.FindAll(ctx, googleResults); err != nil {
		return nil, fmt.Errorf("google search %q: %w", query, err)
	}
	return r, nil
}

// SearchButtonVisible reports whether the "Google Search" button is shown.
func (g *Google) SearchButtonVisible(ctx context.Context) bool {
	return g.IsVisible(ctx, googleSearchBtn)
}

// OpenGmail follows the Gmail link.
func (g *Google) OpenGmail(ctx context.Context) (*Gmail, error) {
	if err := g.Click(ctx, googleGmailLink); err != nil {
		return nil, err
	}
	if err := g.WaitForLoad(ctx); err != nil {
		return nil, err
	}
	return &Gmail{Base: page.New(g.Driver(), g.Options()...)}, nil
}

// OpenImages follows the Images link and returns the new page title.
func (g *Google) OpenImages(ctx context.Context) (string, error) {
	if err := g.Click(ctx, googleImagesLink); err != nil {
		return "", err
	}
	if err := g.WaitForLoad(ctx); err != nil {
		return "", err
	}
	return g.Title()
}

// GoogleResults is a search results page.
type GoogleResults struct {
	*page.Base
}

// Titles returns the result headings in page order.
func (r *GoogleResults) Titles(ctx context.Context) ([]string, error) {
	return r.Texts(ctx, googleResults)
}

// Count returns the number of result headings.
func (r *GoogleResults) Count(ctx context.Context) (int, error) {
	els, err := r.FindAll(ctx, googleResults)
	return len(els), err
}
