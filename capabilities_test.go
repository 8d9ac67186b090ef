package course

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"github.com/tebeka/selenium/log"
)

func chromeOptions(t *testing.T, caps selenium.Capabilities) chrome.Capabilities {
	t.Helper()
	ch, ok := caps[chrome.CapabilitiesKey].(chrome.Capabilities)
	if !ok {
		t.Fatalf("caps[%q] = %T, want chrome.Capabilities", chrome.CapabilitiesKey, caps[chrome.CapabilitiesKey])
	}
	return ch
}

func hasArg(args []string, arg string) bool {
	for _, a := range args {
		if a == arg {
			return true
		}
	}
	return false
}

func TestChromeCapabilities(t *testing.T) {
	tests := []struct {
		desc     string
		mutate   func(*Config)
		wantArgs []string
		noArgs   []string
	}{
		{
			desc:     "defaults",
			mutate:   func(*Config) {},
			wantArgs: []string{"--start-maximized", "--disable-blink-features=AutomationControlled"},
			noArgs:   []string{"--headless=new"},
		},
		{
			desc: "headless with window size",
			mutate: func(c *Config) {
				c.Headless = true
				c.WindowWidth, c.WindowHeight = 1366, 768
			},
			wantArgs: []string{"--headless=new", "--no-sandbox", "--window-size=1366,768"},
			noArgs:   []string{"--start-maximized"},
		},
		{
			desc:     "proxy",
			mutate:   func(c *Config) { c.Proxy = "127.0.0.1:1080" },
			wantArgs: []string{"--proxy-bypass-list=<-loopback>"},
		},
	}
	for _, test := range tests {
		c := DefaultConfig()
		test.mutate(&c)
		caps, err := Capabilities(c)
		if err != nil {
			t.Errorf("%s: Capabilities() returned error: %v", test.desc, err)
			continue
		}
		ch := chromeOptions(t, caps)
		for _, a := range test.wantArgs {
			if !hasArg(ch.Args, a) {
				t.Errorf("%s: args %v missing %q", test.desc, ch.Args, a)
			}
		}
		for _, a := range test.noArgs {
			if hasArg(ch.Args, a) {
				t.Errorf("%s: args %v should not contain %q", test.desc, ch.Args, a)
			}
		}
		if diff := cmp.Diff([]string{"enable-automation"}, ch.ExcludeSwitches); diff != "" {
			t.Errorf("%s: excludeSwitches diff (-want/+got):\n%s", test.desc, diff)
		}
		if !ch.W3C {
			t.Errorf("%s: W3C = false, want true", test.desc)
		}
	}
}

func TestChromeLoggingPrefs(t *testing.T) {
	caps, err := Capabilities(DefaultConfig())
	if err != nil {
		t.Fatalf("Capabilities() returned error: %v", err)
	}
	want := log.Capabilities{
		log.Browser:     log.All,
		log.Performance: log.All,
	}
	if diff := cmp.Diff(want, caps[log.CapabilitiesKey]); diff != "" {
		t.Errorf("caps[%q] diff (-want/+got):\n%s", log.CapabilitiesKey, diff)
	}
	ch := chromeOptions(t, caps)
	if ch.PerfLoggingPrefs == nil || ch.PerfLoggingPrefs.EnableNetwork == nil || !*ch.PerfLoggingPrefs.EnableNetwork {
		t.Errorf("perfLoggingPrefs = %+v, want network events enabled", ch.PerfLoggingPrefs)
	}
}

func TestFirefoxCapabilities(t *testing.T) {
	c := DefaultConfig()
	c.Browser = Firefox
	c.Headless = true
	c.Verbose = true
	c.Proxy = "127.0.0.1:1080"
	c.BrowserPath = "firefox-bin"

	caps, err := Capabilities(c)
	if err != nil {
		t.Fatalf("Capabilities() returned error: %v", err)
	}
	if got := caps["browserName"]; got != Firefox {
		t.Errorf("browserName = %v, want %q", got, Firefox)
	}
	f, ok := caps[firefox.CapabilitiesKey].(firefox.Capabilities)
	if !ok {
		t.Fatalf("caps[%q] = %T, want firefox.Capabilities", firefox.CapabilitiesKey, caps[firefox.CapabilitiesKey])
	}
	if !hasArg(f.Args, "-headless") {
		t.Errorf("args %v missing -headless", f.Args)
	}
	if !filepath.IsAbs(f.Binary) {
		t.Errorf("Binary = %q, want an absolute path", f.Binary)
	}
	if f.Log == nil || f.Log.Level != firefox.Trace {
		t.Errorf("Log = %+v, want trace level", f.Log)
	}
	for pref, want := range map[string]interface{}{
		"dom.webdriver.enabled":                   false,
		"network.proxy.no_proxies_on":             "",
		"network.proxy.allow_hijacking_localhost": true,
	} {
		if got := f.Prefs[pref]; got != want {
			t.Errorf("pref %s = %v, want %v", pref, got, want)
		}
	}
	p, ok := caps["proxy"].(selenium.Proxy)
	if !ok {
		t.Fatalf("caps[proxy] = %T, want selenium.Proxy", caps["proxy"])
	}
	if p.Type != selenium.Manual || p.SOCKS != c.Proxy || p.SOCKSVersion != 5 {
		t.Errorf("proxy = %+v, want manual SOCKS5 to %s", p, c.Proxy)
	}
}

func TestSauceCapabilities(t *testing.T) {
	c := DefaultConfig()
	c.SauceUser, c.SauceKey = "student", "secret"
	caps, err := Capabilities(c)
	if err != nil {
		t.Fatalf("Capabilities() returned error: %v", err)
	}
	if got := caps["platform"]; got != "Linux" {
		t.Errorf("platform = %v, want Linux", got)
	}
	if got := caps["name"]; got != "seleniumcourse" {
		t.Errorf("name = %v, want seleniumcourse", got)
	}
}

func TestCapabilitiesInvalid(t *testing.T) {
	c := DefaultConfig()
	c.Browser = "lynx"
	if _, err := Capabilities(c); !errors.Is(err, ErrUnknownBrowser) {
		t.Errorf("Capabilities() returned %v, want ErrUnknownBrowser", err)
	}
}

func TestPackExtension(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hello-ext")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "manifest.json"), `{"manifest_version": 3, "name": "hello", "version": "1.0"}`)

	c := DefaultConfig()
	c.ExtensionDirs = []string{dir}
	caps, err := Capabilities(c)
	if err != nil {
		t.Fatalf("Capabilities() returned error: %v", err)
	}
	if n := len(chromeOptions(t, caps).Extensions); n != 1 {
		t.Errorf("got %d extensions, want 1", n)
	}

	c.ExtensionDirs = []string{filepath.Join(dir, "manifest.json")}
	if _, err := Capabilities(c); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("Capabilities() with a file extension dir returned %v, want a not a directory error", err)
	}
}
