package sandbox

import (
	"net/http"

	"github.com/flosch/pongo2/v6"
)

type practicePage struct {
	Path, Title string
	template    string
	// data supplies the template context; it may also set headers.
	data func(h *handler, w http.ResponseWriter) pongo2.Context
}

var coursePages = []practicePage{
	{Path: "form", Title: "Practice Form", template: "course/form.html"},
	{Path: "dynamic", Title: "Dynamic Loading", template: "course/dynamic.html",
		data: func(h *handler, _ http.ResponseWriter) pongo2.Context {
			return pongo2.Context{"delay": h.delay.Milliseconds()}
		}},
	{Path: "select", Title: "Dropdowns", template: "course/select.html"},
	{Path: "checkboxes", Title: "Checkboxes and Radios", template: "course/checkboxes.html",
		data: func(*handler, http.ResponseWriter) pongo2.Context {
			return pongo2.Context{"colors": []string{"red", "green", "blue"}}
		}},
	{Path: "table", Title: "Tables", template: "course/table.html",
		data: func(*handler, http.ResponseWriter) pongo2.Context {
			return pongo2.Context{"customers": customers}
		}},
	{Path: "frames", Title: "Frames", template: "course/frames.html"},
	{Path: "alerts", Title: "JavaScript Alerts", template: "course/alerts.html"},
	{Path: "tabs", Title: "Windows", template: "course/tabs.html"},
	{Path: "download", Title: "File Download", template: "course/download.html",
		data: func(*handler, http.ResponseWriter) pongo2.Context {
			return pongo2.Context{"files": []string{"data.csv", "sample.txt"}}
		}},
	{Path: "actions", Title: "Mouse and Keyboard", template: "course/actions.html"},
	{Path: "long", Title: "A Long Page", template: "course/long.html",
		data: func(*handler, http.ResponseWriter) pongo2.Context {
			paragraphs := make([]int, 80)
			for i := range paragraphs {
				paragraphs[i] = i + 1
			}
			return pongo2.Context{"paragraphs": paragraphs}
		}},
	{Path: "cookies", Title: "Cookies", template: "course/cookies.html",
		data: func(_ *handler, w http.ResponseWriter) pongo2.Context {
			http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "welcome", Path: "/"})
			return pongo2.Context{"name": CookieName}
		}},
	{Path: "console", Title: "Console Messages", template: "course/console.html"},
}

// Customer is a row of the practice table.
type Customer struct {
	Name    string
	Country string
	Age     int
}

var customers = []Customer{
	{"Alfreds Futterkiste", "Germany", 57},
	{"Centro comercial Moctezuma", "Mexico", 34},
	{"Ernst Handel", "Austria", 45},
	{"Island Trading", "UK", 29},
	{"Laughing Bacchus Winecellars", "Canada", 62},
	{"Magazzini Alimentari Riuniti", "Italy", 38},
}

// Downloads lists the files of the download page with their contents.
var Downloads = map[string]string{
	"sample.txt": "Selenium course sample file\n",
	"data.csv":   "name,country\nAda,UK\nLinus,Finland\n",
}

// CookieName is the cookie the cookies page sets.
const CookieName = "course_session"

func (h *handler) courseRoutes() {
	h.mux.HandleFunc("GET /course/{$}", h.index)
	for _, p := range coursePages {
		h.mux.HandleFunc("GET /course/"+p.Path, func(w http.ResponseWriter, _ *http.Request) {
			ctx := pongo2.Context{}
			if p.data != nil {
				ctx = p.data(h, w)
			}
			h.render(w, p.template, ctx)
		})
	}
	h.mux.HandleFunc("POST /course/form", h.formSubmitted)
	h.mux.HandleFunc("GET /course/frame", h.static("course/frame.html"))
	h.mux.HandleFunc("GET /course/other", h.static("course/other.html"))
	h.mux.HandleFunc("GET /course/files/{name}", serveDownload)
}

func (h *handler) formSubmitted(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.render(w, "course/submitted.html", pongo2.Context{
		"name":       r.PostFormValue("name"),
		"email":      r.PostFormValue("email"),
		"message":    r.PostFormValue("message"),
		"subscribed": r.PostFormValue("subscribe") == "yes",
	})
}

func serveDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, ok := Downloads[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write([]byte(body))
}
