package sites

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/page"
)

var (
	facebookEmail      = by.ID("email")
	facebookPassword   = by.ID("pass")
	facebookLogin      = by.Name("login")
	facebookForgot     = by.LinkText("Forgotten password?")
	facebookCreate     = by.LinkText("Create new account")
	facebookLoginError = by.CSS("._9ay7")
	facebookSignupForm = by.ID("reg")
	facebookFeed       = by.CSS("[role=feed]")
	facebookPosts      = by.CSS("[role=article]")
)

// Facebook is the login page.
type Facebook struct {
	*page.Base
	baseURL string
}

// NewFacebook returns the Facebook login page object rooted at baseURL.
func NewFacebook(wd selenium.WebDriver, baseURL string, opts ...page.Option) *Facebook {
	return &Facebook{Base: page.New(wd, opts...), baseURL: baseURL}
}

// Open loads the login page.
func (f *Facebook) Open(ctx context.Context) error {
	return f.Base.Open(ctx, f.baseURL)
}

// Login submits the credentials. It returns the news feed, or a *LoginError
// when the page shows a login error.
func (f *Facebook) Login(ctx context.Context, email, password string) (*FacebookHome, error) {
	if err := f.Type(ctx, facebookEmail, email); err != nil {
		return nil, err
	}
	if err := f.Type(ctx, facebookPassword, password); err != nil {
		return nil, err
	}
	if err := f.Click(ctx, facebookLogin); err != nil {
		return nil, err
	}
	i, el, err := firstVisible(ctx, f.Base, facebookFeed, facebookLoginError)
	if err != nil {
		return nil, fmt.Errorf("facebook login: %w", err)
	}
	if i == 1 {
		msg, err := el.Text()
		if err != nil {
			return nil, err
		}
		return nil, &LoginError{Site: "facebook", Message: msg}
	}
	return &FacebookHome{Base: page.New(f.Driver(), f.Options()...)}, nil
}

// ForgotPassword follows the recovery link and returns the new title.
func (f *Facebook) ForgotPassword(ctx context.Context) (string, error) {
	if err := f.Click(ctx, facebookForgot); err != nil {
		return "", err
	}
	if err := f.WaitForLoad(ctx); err != nil {
		return "", err
	}
	return f.Title()
}

// CreateAccount opens the sign-up dialog and reports whether its form shows.
func (f *Facebook) CreateAccount(ctx context.Context) (bool, error) {
	if err := f.Click(ctx, facebookCreate); err != nil {
		return false, err
	}
	return f.IsVisible(ctx, facebookSignupForm), nil
}

// FacebookHome is the news feed shown after a successful login.
type FacebookHome struct {
	*page.Base
}

// Posts returns the text of each post in the feed.
func (h *FacebookHome) Posts(ctx context.Context) ([]string, error) {
	return h.Texts(ctx, facebookPosts)
}
