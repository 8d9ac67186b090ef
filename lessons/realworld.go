package lessons

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/golang/glog"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/dataset"
	"github.com/wanmail/seleniumcourse/runner"
	"github.com/wanmail/seleniumcourse/sites"
)

func realWorld(env Env) []runner.Scenario {
	return []runner.Scenario{
		{Lesson: RealWorld, Name: "google_search", Run: func(ctx context.Context, s *course.Session) error {
			return googleSearch(ctx, s, first(env.Data.Queries, dataset.SearchQueries[0]))
		}},
		{Lesson: RealWorld, Name: "gmail_signin", Run: gmailSignIn(env)},
		{Lesson: RealWorld, Name: "facebook_login_error", Run: facebookLoginError(env)},
		{Lesson: RealWorld, Name: "amazon_add_to_cart", Slow: true, Run: func(ctx context.Context, s *course.Session) error {
			return amazonAddToCart(ctx, s, first(env.Data.Products, dataset.ProductNames[0]))
		}},
	}
}

func first[T any](vs []T, fallback T) T {
	if len(vs) == 0 {
		return fallback
	}
	return vs[0]
}

func credential(env Env) dataset.Credential {
	return first(env.Data.Credentials, dataset.Credentials[0])
}

func googleSearch(ctx context.Context, s *course.Session, query string) error {
	u, err := siteURL(s, "google", "")
	if err != nil {
		return err
	}
	g := sites.NewGoogle(s.Driver(), u, s.PageOptions()...)
	if err := g.Open(ctx); err != nil {
		return err
	}
	if !g.SearchButtonVisible(ctx) {
		return fmt.Errorf("search button not shown")
	}
	res, err := g.Search(ctx, query)
	if err != nil {
		return err
	}
	n, err := res.Count(ctx)
	if err != nil {
		return err
	}
	glog.Infof("Google returned %d results for %q", n, query)
	title, err := res.Title()
	if err != nil {
		return err
	}
	if err := expectContains("results title", title, query); err != nil {
		return err
	}

	if err := g.Open(ctx); err != nil {
		return err
	}
	if title, err = g.OpenImages(ctx); err != nil {
		return err
	}
	return expectContains("images title", title, "Images")
}

func gmailSignIn(env Env) func(context.Context, *course.Session) error {
	return func(ctx context.Context, s *course.Session) error {
		u, err := siteURL(s, "google", "")
		if err != nil {
			return err
		}
		g := sites.NewGoogle(s.Driver(), u, s.PageOptions()...)
		if err := g.Open(ctx); err != nil {
			return err
		}
		gmail, err := g.OpenGmail(ctx)
		if err != nil {
			return err
		}
		signIn, err := gmail.SignIn(ctx)
		if err != nil {
			return err
		}

		_, err = signIn.EnterEmail(ctx, "nobody@invalid.test")
		var le *sites.LoginError
		if !errors.As(err, &le) {
			return fmt.Errorf("unknown address: got %v, want a login error", err)
		}
		glog.Infof("Unknown address rejected: %s", le.Message)

		heading, err := signIn.EnterEmail(ctx, credential(env).Email)
		if err != nil {
			return err
		}
		return expect("password step heading", heading, "Welcome")
	}
}

func facebookLoginError(env Env) func(context.Context, *course.Session) error {
	return func(ctx context.Context, s *course.Session) error {
		u, err := siteURL(s, "facebook", "")
		if err != nil {
			return err
		}
		fb := sites.NewFacebook(s.Driver(), u, s.PageOptions()...)
		cred := credential(env)
		attempts := []struct {
			email, password string
			message         string
		}{
			{cred.Email, cred.Password + "-wrong", "password"},
			{"stranger@invalid.test", "secret", "isn't connected"},
		}
		for _, a := range attempts {
			if err := fb.Open(ctx); err != nil {
				return err
			}
			_, err := fb.Login(ctx, a.email, a.password)
			var le *sites.LoginError
			if !errors.As(err, &le) {
				return fmt.Errorf("login as %s: got %v, want a login error", a.email, err)
			}
			if err := expectContains("login error", le.Message, a.message); err != nil {
				return err
			}
		}

		if err := fb.Open(ctx); err != nil {
			return err
		}
		shown, err := fb.CreateAccount(ctx)
		if err != nil {
			return err
		}
		if !shown {
			return fmt.Errorf("sign-up form not shown")
		}
		if err := fb.Open(ctx); err != nil {
			return err
		}
		title, err := fb.ForgotPassword(ctx)
		if err != nil {
			return err
		}
		return expectContains("recovery title", title, "Forgotten Password")
	}
}

func amazonAddToCart(ctx context.Context, s *course.Session, product string) error {
	u, err := siteURL(s, "amazon", "")
	if err != nil {
		return err
	}
	a := sites.NewAmazon(s.Driver(), u, s.PageOptions()...)
	if err := a.Open(ctx); err != nil {
		return err
	}
	if !a.AccountVisible(ctx) {
		return fmt.Errorf("account menu not shown")
	}
	before, err := a.CartCount(ctx)
	if err != nil {
		return err
	}

	res, err := a.Search(ctx, product)
	if err != nil {
		return err
	}
	titles, err := res.Titles(ctx)
	if err != nil {
		return err
	}
	glog.Infof("Amazon: %d results for %q", len(titles), product)
	p, err := res.Open(ctx, 0)
	if err != nil {
		return err
	}
	title, err := p.Title(ctx)
	if err != nil {
		return err
	}
	price, err := p.Price(ctx)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(price, "$") {
		return fmt.Errorf("price %q has no currency", price)
	}
	msg, err := p.AddToCart(ctx)
	if err != nil {
		return err
	}
	if err := expectContains("confirmation", msg, "Added to Cart"); err != nil {
		return err
	}
	after, err := p.CartCount(ctx)
	if err != nil {
		return err
	}
	if after != before+1 {
		return fmt.Errorf("cart count %d after adding, was %d", after, before)
	}

	cart, err := p.OpenCart(ctx)
	if err != nil {
		return err
	}
	items, err := cart.Items(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(items, title) {
		return fmt.Errorf("cart %q does not hold %q", items, title)
	}
	return nil
}
