package sites

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/page"
)

var (
	gmailSignInLink  = by.LinkText("Sign in")
	signInIdentifier = by.ID("identifierId")
	signInNext       = by.ID("identifierNext")
	signInPassword   = by.Name("Passwd")
	signInHeading    = by.ID("headingText")
	signInError      = by.CSS("[aria-live=assertive]")
)

// Gmail is the Gmail landing page reached from Google.
type Gmail struct {
	*page.Base
}

// NewGmail returns the Gmail landing page object for the current page.
func NewGmail(wd selenium.WebDriver, opts ...page.Option) *Gmail {
	return &Gmail{Base: page.New(wd, opts...)}
}

// SignIn follows the "Sign in" link to the account chooser.
func (g *Gmail) SignIn(ctx context.Context) (*GoogleSignIn, error) {
	if err := g.Click(ctx, gmailSignInLink); err != nil {
		return nil, err
	}
	s := &GoogleSignIn{Base: page.New(g.Driver(), g.Options()...)}
	if _, err := s.FindVisible(ctx, signInIdentifier); err != nil {
		return nil, err
	}
	return s, nil
}

// GoogleSignIn is the e-mail step of the Google account sign-in flow.
type GoogleSignIn struct {
	*page.Base
}

// EnterEmail submits an address. On success it returns the heading of the
// password step; an unknown address yields a *LoginError with the page's
// message.
func (s *GoogleSignIn) EnterEmail(ctx context.Context, email string) (string, error) {
	if err := s.Type(ctx, signInIdentifier, email); err != nil {
		return "", err
	}
	if err := s.Click(ctx, signInNext); err != nil {
		return "", err
	}
	i, el, err := firstVisible(ctx, s.Base, signInPassword, signInError)
	if err != nil {
		return "", fmt.Errorf("gmail sign-in: %w", err)
	}
	if i == 1 {
		msg, err := el.Text()
		if err != nil {
			return "", err
		}
		return "", &LoginError{Site: "gmail", Message: msg}
	}
	return s.Text(ctx, signInHeading)
}
