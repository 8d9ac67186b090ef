package course

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	crx3 "github.com/mediabuyerbot/go-crx3"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"github.com/tebeka/selenium/log"
	"github.com/tebeka/selenium/sauce"
)

// chromeArgs hide the automation banner and the navigator.webdriver hint
// Chrome exposes by default.
var chromeArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
}

// Capabilities builds the session capabilities for c.
func Capabilities(c Config) (selenium.Capabilities, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	caps := selenium.Capabilities{"browserName": c.Browser}
	var err error
	switch c.Browser {
	case Chrome:
		err = addChrome(caps, c)
	case Firefox:
		err = addFirefox(caps, c)
	}
	if err != nil {
		return nil, err
	}
	if c.Proxy != "" {
		caps.AddProxy(selenium.Proxy{
			Type:         selenium.Manual,
			SOCKS:        c.Proxy,
			SOCKSVersion: 5,
		})
	}
	if c.SauceUser != "" {
		sc := sauce.Capabilities{Browser: c.Browser, Platform: "Linux", TestName: "seleniumcourse"}
		m, err := sc.ToMap()
		if err != nil {
			return nil, fmt.Errorf("sauce capabilities: %w", err)
		}
		for k, v := range m {
			caps[k] = v
		}
	}
	return caps, nil
}

func addChrome(caps selenium.Capabilities, c Config) error {
	enableNetwork := true
	ch := chrome.Capabilities{
		Path:             c.BrowserPath,
		Args:             append([]string(nil), chromeArgs...),
		ExcludeSwitches:  []string{"enable-automation"},
		W3C:              true,
		PerfLoggingPrefs: &chrome.PerfLoggingPreferences{
			EnableNetwork: &enableNetwork,
		},
	}
	switch {
	case c.WindowWidth > 0:
		ch.Args = append(ch.Args, "--window-size="+strconv.Itoa(c.WindowWidth)+","+strconv.Itoa(c.WindowHeight))
	case c.Maximize:
		ch.Args = append(ch.Args, "--start-maximized")
	}
	if c.Headless {
		// The sandbox requires a setuid binary, which containers rarely have.
		ch.Args = append(ch.Args, "--headless=new", "--no-sandbox")
	}
	if c.Proxy != "" {
		// Chrome never proxies loopback unless told to. https://crbug.com/899126
		ch.Args = append(ch.Args, "--proxy-bypass-list=<-loopback>")
	}
	for _, dir := range c.ExtensionDirs {
		crx, err := packExtension(dir)
		if err != nil {
			return err
		}
		if err := ch.AddExtension(crx); err != nil {
			return fmt.Errorf("adding extension %s: %w", crx, err)
		}
	}
	caps.AddChrome(ch)

	// Performance entries carry the DevTools network events.
	caps.SetLogLevel(log.Browser, log.All)
	caps.SetLogLevel(log.Performance, log.All)
	return nil
}

func addFirefox(caps selenium.Capabilities, c Config) error {
	f := firefox.Capabilities{
		Prefs: map[string]interface{}{
			"dom.webdriver.enabled":  false,
			"useAutomationExtension": false,
		},
	}
	if c.BrowserPath != "" {
		p, err := filepath.Abs(c.BrowserPath)
		if err != nil {
			return err
		}
		f.Binary = p
	}
	if c.Headless {
		f.Args = append(f.Args, "-headless")
	}
	if c.WindowWidth > 0 {
		f.Args = append(f.Args, "-width", strconv.Itoa(c.WindowWidth), "-height", strconv.Itoa(c.WindowHeight))
	}
	if c.Verbose {
		f.Log = &firefox.Log{Level: firefox.Trace}
	}
	if c.Proxy != "" {
		// Firefox skips the proxy for localhost unless both prefs are cleared.
		f.Prefs["network.proxy.no_proxies_on"] = ""
		f.Prefs["network.proxy.allow_hijacking_localhost"] = true
	}
	caps.AddFirefox(f)
	return nil
}

// packExtension signs the unpacked extension in dir with a fresh key and
// returns the path of the resulting .crx file.
func packExtension(dir string) (string, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("extension %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("extension %s is not a directory", dir)
	}
	out, err := os.MkdirTemp("", "course-crx")
	if err != nil {
		return "", err
	}
	dst := filepath.Join(out, filepath.Base(filepath.Clean(dir))+".crx")
	if err := crx3.Pack(dir, dst, nil); err != nil {
		return "", fmt.Errorf("packing extension %s: %w", dir, err)
	}
	glog.V(1).Infof("capabilities: packed %s into %s", dir, dst)
	return dst, nil
}
