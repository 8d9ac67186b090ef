package sites

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/page"
)

var (
	amazonSearchBox    = by.ID("twotabsearchtextbox")
	amazonSearchSubmit = by.ID("nav-search-submit-button")
	amazonResults      = by.CSS("h2 a span")
	amazonResultLinks  = by.CSS("h2 a")
	amazonCart         = by.ID("nav-cart")
	amazonCartCount    = by.ID("nav-cart-count")
	amazonAccount      = by.ID("nav-link-accountList")
	amazonTitle        = by.ID("productTitle")
	amazonPrice        = by.CSS(".a-price .a-offscreen")
	amazonAddToCart    = by.ID("add-to-cart-button")
	amazonAdded        = by.CSS("#NATC_SMART_WAGON_CONF_MSG_SUCCESS")
	amazonCartItems    = by.CSS(".sc-product-title")
)

// Amazon is the store front page. The header (search, cart, account) is
// available on every Amazon page object through embedding.
type Amazon struct {
	*page.Base
	baseURL string
}

// NewAmazon returns the Amazon home page object rooted at baseURL.
func NewAmazon(wd selenium.WebDriver, baseURL string, opts ...page.Option) *Amazon {
	return &Amazon{Base: page.New(wd, opts...), baseURL: baseURL}
}

// Open loads the home page.
func (a *Amazon) Open(ctx context.Context) error {
	return a.Base.Open(ctx, a.baseURL)
}

func (a *Amazon) derive() *Amazon {
	return &Amazon{Base: page.New(a.Driver(), a.Options()...), baseURL: a.baseURL}
}

// Search runs a product search and returns the results page.
func (a *Amazon) Search(ctx context.Context, query string) (*AmazonResults, error) {
	if err := a.Type(ctx, amazonSearchBox, query); err != nil {
		return nil, err
	}
	if err := a.Click(ctx, amazonSearchSubmit); err != nil {
		return nil, err
	}
	r := &AmazonResults{Amazon: a.derive()}
	if _, err := r.FindAll(ctx, amazonResults); err != nil {
		return nil, fmt.Errorf("amazon search %q: %w", query, err)
	}
	return r, nil
}

// CartCount returns the number shown on the cart badge.
func (a *Amazon) CartCount(ctx context.Context) (int, error) {
	s, err := a.Text(ctx, amazonCartCount)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("cart count %q: %w", s, err)
	}
	return n, nil
}

// OpenCart follows the cart link.
func (a *Amazon) OpenCart(ctx context.Context) (*AmazonCart, error) {
	if err := a.Click(ctx, amazonCart); err != nil {
		return nil, err
	}
	if err := a.WaitForLoad(ctx); err != nil {
		return nil, err
	}
	return &AmazonCart{Amazon: a.derive()}, nil
}

// AccountVisible reports whether the "Account & Lists" menu is shown.
func (a *Amazon) AccountVisible(ctx context.Context) bool {
	return a.IsVisible(ctx, amazonAccount)
}

// AmazonResults is a search results page.
type AmazonResults struct {
	*Amazon
}

// Titles returns the product titles in result order.
func (r *AmazonResults) Titles(ctx context.Context) ([]string, error) {
	return r.Texts(ctx, amazonResults)
}

// Open follows the i-th result, counting from zero.
func (r *AmazonResults) Open(ctx context.Context, i int) (*AmazonProduct, error) {
	links, err := r.FindAll(ctx, amazonResultLinks)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(links) {
		return nil, fmt.Errorf("amazon result %d out of range [0, %d)", i, len(links))
	}
	if err := links[i].Click(); err != nil {
		return nil, fmt.Errorf("opening result %d: %w", i, err)
	}
	p := &AmazonProduct{Amazon: r.derive()}
	if _, err := p.FindVisible(ctx, amazonTitle); err != nil {
		return nil, err
	}
	return p, nil
}

// AmazonProduct is a product detail page.
type AmazonProduct struct {
	*Amazon
}

// Title returns the product title.
func (p *AmazonProduct) Title(ctx context.Context) (string, error) {
	s, err := p.Text(ctx, amazonTitle)
	return strings.TrimSpace(s), err
}

// Price returns the displayed price text, e.g. "$19.99".
func (p *AmazonProduct) Price(ctx context.Context) (string, error) {
	el, err := p.Find(ctx, amazonPrice)
	if err != nil {
		return "", err
	}
	// The price span is visually hidden for screen readers, so Text would be
	// empty; read its textContent instead.
	s, err := el.GetAttribute("textContent")
	return strings.TrimSpace(s), err
}

// AddToCart adds the product and returns the confirmation message.
func (p *AmazonProduct) AddToCart(ctx context.Context) (string, error) {
	if err := p.Click(ctx, amazonAddToCart); err != nil {
		return "", err
	}
	s, err := p.Text(ctx, amazonAdded)
	return strings.TrimSpace(s), err
}

// AmazonCart is the shopping cart page.
type AmazonCart struct {
	*Amazon
}

// Items returns the product titles in the cart. An empty cart yields no
// items rather than an error.
func (c *AmazonCart) Items(ctx context.Context) ([]string, error) {
	els, err := amazonCartItems.FindAllIn(c.Driver())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			return nil, err
		}
		out = append(out, strings.TrimSpace(t))
	}
	return out, nil
}
