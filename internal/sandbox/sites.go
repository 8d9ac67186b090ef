package sandbox

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// SearchResult is one hit on the Google results page.
type SearchResult struct {
	Title, URL, Snippet string
}

var resultPatterns = []string{
	"%s - Official Site",
	"What is %s?",
	"%s tutorial for beginners",
	"%s documentation",
	"Learn %s in 10 minutes",
}

// GoogleResults returns the results the Google replica shows for query.
// Every title contains the query.
func GoogleResults(query string) []SearchResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	out := make([]SearchResult, len(resultPatterns))
	slug := strings.ToLower(strings.Join(strings.Fields(query), "-"))
	for i, p := range resultPatterns {
		out[i] = SearchResult{
			Title:   fmt.Sprintf(p, query),
			URL:     fmt.Sprintf("/course/other?from=%s&rank=%d", slug, i+1),
			Snippet: fmt.Sprintf("Everything about %s, result %d.", query, i+1),
		}
	}
	return out
}

func (h *handler) googleRoutes() {
	h.mux.HandleFunc("GET /google/{$}", h.static("google/home.html"))
	h.mux.HandleFunc("GET /google/images", h.static("google/images.html"))
	h.mux.HandleFunc("GET /google/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		h.render(w, "google/results.html", pongo2.Context{"query": q, "results": GoogleResults(q)})
	})

	h.mux.HandleFunc("GET /gmail/{$}", h.static("gmail/home.html"))
	h.mux.HandleFunc("GET /gmail/signin", h.gmailSignIn)
	h.mux.HandleFunc("GET /gmail/signin/pwd", func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if _, ok := h.accounts[email]; !ok {
			http.Redirect(w, r, "/gmail/signin?unknown="+url.QueryEscape(email), http.StatusSeeOther)
			return
		}
		h.render(w, "gmail/password.html", pongo2.Context{"email": email})
	})
}

// gmailSignIn renders the identifier step. Only the configured accounts get
// past it; ?unknown=<email> shows the rejection for that address.
func (h *handler) gmailSignIn(w http.ResponseWriter, r *http.Request) {
	emails := make([]string, 0, len(h.accounts))
	for e := range h.accounts {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	js, err := json.Marshal(emails)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	q := r.URL.Query()
	h.render(w, "gmail/signin.html", pongo2.Context{
		"emails":  string(js),
		"email":   q.Get("unknown"),
		"unknown": q.Has("unknown"),
	})
}

// Post is an entry of the Facebook feed.
type Post struct {
	Author, Text string
}

var posts = []Post{
	{"Selenium Course", "Welcome to the sandbox news feed."},
	{"Page Objects", "Keep locators in one place."},
	{"Explicit Waits", "Wait for conditions, not for time."},
}

func (h *handler) facebookRoutes() {
	h.mux.HandleFunc("GET /facebook/{$}", func(w http.ResponseWriter, _ *http.Request) {
		accounts, err := json.Marshal(h.accounts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.render(w, "facebook/login.html", pongo2.Context{"accounts": string(accounts)})
	})
	h.mux.HandleFunc("GET /facebook/recover", h.static("facebook/recover.html"))
	h.mux.HandleFunc("GET /facebook/home", func(w http.ResponseWriter, _ *http.Request) {
		h.render(w, "facebook/home.html", pongo2.Context{"posts": posts})
	})
}

// Product is an item of the Amazon replica's catalog.
type Product struct {
	ID, Title, Price string
	Keyword          string
}

// Catalog holds two products for each built-in product name.
var Catalog = []Product{
	{"B0LAPTOP14", "Course Laptop 14 inch", "$499.00", "laptop"},
	{"B0LAPTOP16", "Course Laptop Pro 16 inch", "$1,299.00", "laptop"},
	{"B0PHONEX01", "Course Smartphone X", "$699.00", "smartphone"},
	{"B0PHONEMIN", "Course Smartphone Mini", "$399.00", "smartphone"},
	{"B0HEADWLSS", "Course Wireless Headphones", "$89.99", "headphones"},
	{"B0HEADSTUD", "Course Studio Headphones", "$149.00", "headphones"},
	{"B0CAMMIRRL", "Course Mirrorless Camera", "$849.00", "camera"},
	{"B0CAMACTN1", "Course Action Camera", "$229.00", "camera"},
	{"B0TABLET10", "Course Tablet 10 inch", "$279.00", "tablet"},
	{"B0TABLETPR", "Course Tablet Pro", "$799.00", "tablet"},
}

// SearchCatalog returns the products whose title or keyword contains query,
// ignoring case.
func SearchCatalog(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Product
	for _, p := range Catalog {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(p.Keyword, q) {
			out = append(out, p)
		}
	}
	return out
}

func productByID(id string) (Product, bool) {
	for _, p := range Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// CartCookie holds the product IDs in the cart, joined with "-".
const CartCookie = "cart"

func cartItems(r *http.Request) []Product {
	c, err := r.Cookie(CartCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	var out []Product
	for _, id := range strings.Split(c.Value, "-") {
		if p, ok := productByID(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func (h *handler) amazonRoutes() {
	page := func(name string, fill func(r *http.Request, ctx pongo2.Context) bool) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			items := cartItems(r)
			ctx := pongo2.Context{"cartCount": len(items), "items": items}
			if fill != nil && !fill(r, ctx) {
				http.NotFound(w, r)
				return
			}
			h.render(w, name, ctx)
		}
	}
	h.mux.HandleFunc("GET /amazon/{$}", page("amazon/home.html", func(_ *http.Request, ctx pongo2.Context) bool {
		ctx["products"] = Catalog
		return true
	}))
	h.mux.HandleFunc("GET /amazon/s", page("amazon/results.html", func(r *http.Request, ctx pongo2.Context) bool {
		q := r.URL.Query().Get("k")
		ctx["query"], ctx["products"] = q, SearchCatalog(q)
		return true
	}))
	h.mux.HandleFunc("GET /amazon/dp/{id}", page("amazon/product.html", func(r *http.Request, ctx pongo2.Context) bool {
		p, ok := productByID(r.PathValue("id"))
		ctx["product"] = p
		return ok
	}))
	h.mux.HandleFunc("GET /amazon/cart", page("amazon/cart.html", nil))
}
