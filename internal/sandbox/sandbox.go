// Package sandbox serves offline replicas of every page the course drives:
// practice pages for the lessons and stand-ins for Google, Gmail, Facebook
// and Amazon that answer to the same locators as the real sites. A SOCKS5
// proxy can route any browser request to the sandbox.
package sandbox

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/golang/glog"

	"github.com/wanmail/seleniumcourse/dataset"
)

//go:embed pages
var pages embed.FS

// Sites lists the site names served under /<name>/, as used in
// course.Config.BaseURLs.
var Sites = []string{"google", "gmail", "facebook", "amazon", "course"}

// DefaultDelay is how long the dynamic pages wait before they change.
const DefaultDelay = time.Second

// embedLoader loads templates from the embedded pages directory.
type embedLoader struct{}

func (embedLoader) Abs(_, name string) string { return name }

func (embedLoader) Get(name string) (io.Reader, error) {
	return pages.Open(path.Join("pages", name))
}

type handler struct {
	mux      *http.ServeMux
	tpl      *pongo2.TemplateSet
	delay    time.Duration
	accounts map[string]string
}

// Option configures the sandbox pages.
type Option func(*handler)

// WithDelay sets the delay of the dynamic loading page and the title change.
func WithDelay(d time.Duration) Option {
	return func(h *handler) { h.delay = d }
}

// WithCredentials sets the accounts the Gmail and Facebook replicas accept.
// Gmail checks the address only; Facebook checks the password too.
func WithCredentials(creds []dataset.Credential) Option {
	return func(h *handler) {
		h.accounts = make(map[string]string, len(creds))
		for _, c := range creds {
			h.accounts[c.Email] = c.Password
		}
	}
}

// NewHandler returns the sandbox as an http.Handler.
func NewHandler(opts ...Option) http.Handler {
	h := &handler{
		mux:   http.NewServeMux(),
		tpl:   pongo2.NewSet("sandbox", embedLoader{}),
		delay: DefaultDelay,
	}
	WithCredentials(dataset.Credentials)(h)
	for _, opt := range opts {
		opt(h)
	}
	h.routes()
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	glog.V(2).Infof("sandbox: %s %s", r.Method, r.URL)
	h.mux.ServeHTTP(w, r)
}

func (h *handler) routes() {
	h.mux.HandleFunc("GET /{$}", h.index)
	h.courseRoutes()
	h.googleRoutes()
	h.facebookRoutes()
	h.amazonRoutes()
}

// render executes a template. pongo2 buffers the output, so a failed
// template still yields a clean 500.
func (h *handler) render(w http.ResponseWriter, name string, ctx pongo2.Context) {
	t, err := h.tpl.FromCache(name)
	if err != nil {
		glog.Errorf("sandbox: loading template %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out, err := t.ExecuteBytes(ctx)
	if err != nil {
		glog.Errorf("sandbox: rendering %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

// static serves a template that needs no data.
func (h *handler) static(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.render(w, name, pongo2.Context{})
	}
}

func (h *handler) index(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "index.html", pongo2.Context{"pages": coursePages, "sites": Sites[:4]})
}

// Server is a running sandbox.
type Server struct {
	// URL is the root of the sandbox, without a trailing slash.
	URL string

	srv  *http.Server
	done chan struct{}
}

// Start serves the sandbox on a free loopback port.
func Start(opts ...Option) (*Server, error) {
	return Listen("127.0.0.1:0", opts...)
}

// Listen serves the sandbox on addr.
func Listen(addr string, opts ...Option) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	s := &Server{
		URL:  "http://" + l.Addr().String(),
		srv:  &http.Server{Handler: NewHandler(opts...), ReadHeaderTimeout: 10 * time.Second},
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("sandbox: %v", err)
		}
	}()
	glog.Infof("Sandbox serving on %s", s.URL)
	return s, nil
}

// BaseURLs maps every site name to its root in the sandbox.
func (s *Server) BaseURLs() map[string]string {
	m := make(map[string]string, len(Sites))
	for _, site := range Sites {
		m[site] = s.URL + "/" + site + "/"
	}
	return m
}

// Close stops the server and waits for it to exit.
func (s *Server) Close() error {
	err := s.srv.Close()
	<-s.done
	return err
}
