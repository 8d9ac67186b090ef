package coursetest

import (
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"github.com/golang/glog"

	course "github.com/wanmail/seleniumcourse"
)

var (
	chromeDriverPath = flag.String("chrome_driver_path", "", "The path to the ChromeDriver binary. If empty, drivers/chromedriver* and the PATH are searched; when nothing is found the Chrome tests are skipped.")
	chromeBinary     = flag.String("chrome_binary", "", "The Chrome binary or its name on the PATH. If empty, ChromeDriver picks the installed Chrome.")
	geckoDriverPath  = flag.String("geckodriver_path", "", "The path to the geckodriver binary. If empty, drivers/geckodriver* and the PATH are searched; when nothing is found the Firefox tests are skipped.")
	firefoxBinary    = flag.String("firefox_binary", "", "The Firefox binary or its name on the PATH.")
	headless         = flag.Bool("headless", true, "Run the browsers headless.")
	startFrameBuffer = flag.Bool("start_frame_buffer", false, "If true, start an Xvfb subprocess and run the browsers in that X server.")
	skipProxy        = flag.Bool("skip_proxy", false, "Skip the scenario that browses through the SOCKS5 proxy.")
)

func findBestPath(glob string, binary bool) string {
	matches, err := filepath.Glob(glob)
	if err != nil {
		glog.Warningf("Error globbing %q: %s", glob, err)
		return ""
	}
	// Iterate backwards: newer versions should be sorted to the end.
	sort.Strings(matches)
	for i := len(matches) - 1; i >= 0; i-- {
		path := matches[i]
		fi, err := os.Stat(path)
		if err != nil {
			glog.Warningf("Error statting %q: %s", path, err)
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		if binary && fi.Mode().Perm()&0111 == 0 {
			continue
		}
		return path
	}
	return ""
}

// driverPath resolves the driver binary or skips the test.
func driverPath(t *testing.T, flagValue, name string) string {
	t.Helper()
	if flagValue != "" {
		if _, err := os.Stat(flagValue); err != nil {
			t.Skipf("Skipping: %s not found at %q", name, flagValue)
		}
		return flagValue
	}
	if p := findBestPath(filepath.Join("..", "..", "drivers", name+"*"), true); p != "" {
		return p
	}
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("Skipping: %s not found", name)
	}
	return p
}

func browserPath(t *testing.T, binary string) string {
	t.Helper()
	if binary == "" {
		return ""
	}
	if _, err := os.Stat(binary); err == nil {
		return binary
	}
	p, err := exec.LookPath(binary)
	if err != nil {
		t.Skipf("Skipping: browser binary %q not found", binary)
	}
	return p
}

func config(t *testing.T, browser, driver, binary string) Config {
	cfg := course.DefaultConfig()
	cfg.Browser = browser
	cfg.DriverPath = driver
	cfg.BrowserPath = binary
	cfg.Headless = *headless
	cfg.FrameBuffer = *startFrameBuffer
	cfg.TakeScreenshots = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("cfg.Validate() returned error: %v", err)
	}
	return Config{Course: cfg, SkipProxy: *skipProxy}
}

func TestChrome(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser tests in short mode")
	}
	c := config(t, course.Chrome,
		driverPath(t, *chromeDriverPath, "chromedriver"),
		browserPath(t, *chromeBinary))

	t.Run("Session", func(t *testing.T) { RunSessionTests(t, c) })
	t.Run("Lessons", func(t *testing.T) { RunLessonTests(t, c) })
	t.Run("Chrome", func(t *testing.T) { RunChromeTests(t, c) })
}

func TestFirefox(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser tests in short mode")
	}
	c := config(t, course.Firefox,
		driverPath(t, *geckoDriverPath, "geckodriver"),
		browserPath(t, *firefoxBinary))

	t.Run("Session", func(t *testing.T) { RunSessionTests(t, c) })
	t.Run("Lessons", func(t *testing.T) { RunLessonTests(t, c) })
}
