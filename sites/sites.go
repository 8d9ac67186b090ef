// Package sites holds page objects for the real-world sites used in the
// course: Google search, Gmail sign-in, Facebook login and Amazon shopping.
//
// Every constructor takes the site's base URL so the same page objects drive
// either the live site or the offline replica served by the course sandbox.
package sites

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/by"
	"github.com/wanmail/seleniumcourse/page"
	"github.com/wanmail/seleniumcourse/wait"
)

// LoginError carries the message a site displayed after a rejected login.
type LoginError struct {
	Site    string
	Message string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("%s: login rejected: %s", e.Site, e.Message)
}

// firstVisible waits until one of the locators is displayed and returns its
// index in ls.
func firstVisible(ctx context.Context, p *page.Base, ls ...by.Locator) (int, selenium.WebElement, error) {
	type hit struct {
		i  int
		el selenium.WebElement
	}
	h, err := wait.Until(ctx, p.Wait(), p.Driver(), func(wd selenium.WebDriver) (hit, bool, error) {
		for i, l := range ls {
			el, ok, err := wait.VisibilityOf(l)(wd)
			if err != nil && !wait.IsNoSuchElement(err) && !wait.IsStale(err) {
				return hit{}, false, err
			}
			if ok {
				return hit{i, el}, true, nil
			}
		}
		return hit{}, false, nil
	})
	if err != nil {
		return -1, nil, page.LookupError(ls[0], err)
	}
	return h.i, h.el, nil
}
