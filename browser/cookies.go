package browser

import (
	"github.com/tebeka/selenium"
)

// CookieJar reads and writes the cookies of the current domain.
type CookieJar struct {
	wd selenium.WebDriver
}

func Cookies(wd selenium.WebDriver) *CookieJar { return &CookieJar{wd: wd} }

// Set adds a cookie visible to the whole site.
func (j *CookieJar) Set(name, value string) error {
	return j.wd.AddCookie(&selenium.Cookie{Name: name, Value: value, Path: "/"})
}

// Get returns the cookie called name.
func (j *CookieJar) Get(name string) (selenium.Cookie, error) {
	return j.wd.GetCookie(name)
}

// Delete removes the cookie called name.
func (j *CookieJar) Delete(name string) error {
	return j.wd.DeleteCookie(name)
}

// Clear deletes every cookie of the current domain.
func (j *CookieJar) Clear() error {
	return j.wd.DeleteAllCookies()
}

// Map returns the cookie values keyed by name.
func (j *CookieJar) Map() (map[string]string, error) {
	cs, err := j.wd.GetCookies()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(cs))
	for _, c := range cs {
		m[c.Name] = c.Value
	}
	return m, nil
}
