// Package lessons is the course itself: the scenarios of every lesson, in
// the order a student works through them.
//
// Scenarios only use the public packages of this module. They open pages
// through the base URLs of the session configuration, so the same scenario
// runs against the offline sandbox or against the live sites.
package lessons

import (
	"context"
	"fmt"
	"strings"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/dataset"
	"github.com/wanmail/seleniumcourse/page"
	"github.com/wanmail/seleniumcourse/runner"
)

// Lesson names, in course order.
const (
	Basics       = "01_basics"
	Intermediate = "02_intermediate"
	Advanced     = "03_advanced"
	RealWorld    = "04_real_world"
)

// Levels lists the lessons in course order.
var Levels = []string{Basics, Intermediate, Advanced, RealWorld}

// CourseSite is the BaseURLs key of the practice pages.
const CourseSite = "course"

// ProxyHost is the host the proxy scenario requests. It only resolves
// through the sandbox proxy.
const ProxyHost = "course.test"

// Env carries what scenarios need besides their session.
type Env struct {
	Data dataset.Set
	// ProxyAddr is a SOCKS5 host:port that forwards every request to the
	// sandbox. The proxy scenario is skipped without it.
	ProxyAddr string
}

// All returns every scenario of the course in order.
func All(env Env) []runner.Scenario {
	if len(env.Data.Queries) == 0 && len(env.Data.Products) == 0 && len(env.Data.Credentials) == 0 {
		env.Data = dataset.Default()
	}
	var out []runner.Scenario
	out = append(out, basics()...)
	out = append(out, intermediate()...)
	out = append(out, advanced(env)...)
	out = append(out, realWorld(env)...)
	return out
}

// siteURL resolves path on site. A site without a base URL skips the
// scenario rather than failing it.
func siteURL(s *course.Session, site, path string) (string, error) {
	u, err := s.URL(site, path)
	if err != nil {
		return "", runner.Skip("%v", err)
	}
	return u, nil
}

// coursePage opens one of the practice pages and returns a page object for it.
func coursePage(ctx context.Context, s *course.Session, path string) (*page.Base, error) {
	u, err := siteURL(s, CourseSite, path)
	if err != nil {
		return nil, err
	}
	p := page.New(s.Driver(), s.PageOptions()...)
	if err := p.Open(ctx, u); err != nil {
		return nil, err
	}
	return p, nil
}

func expect(what, got, want string) error {
	if got != want {
		return fmt.Errorf("%s = %q, want %q", what, got, want)
	}
	return nil
}

func expectContains(what, got, want string) error {
	if !strings.Contains(got, want) {
		return fmt.Errorf("%s = %q, want it to contain %q", what, got, want)
	}
	return nil
}

// textOf waits for l to be visible and returns its trimmed text.
func textOf(ctx context.Context, p *page.Base, l by.Locator) (string, error) {
	s, err := p.Text(ctx, l)
	return strings.TrimSpace(s), err
}
