package course

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	got, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") returned error: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("LoadConfig(\"\") returned diff (-want/+got):\n%s", diff)
	}
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfgPath := filepath.Join(dir, "course.yaml")
	writeFile(t, cfgPath, `
browser: firefox
headless: true
explicit_wait: 5s
window_width: 1280
window_height: 800
base_urls:
  google: http://127.0.0.1:8000/google
extension_dirs: [ext/a, ext/b]
`)
	t.Setenv("COURSE_HEADLESS", "false")
	t.Setenv("COURSE_POLL_INTERVAL", "250ms")
	t.Setenv("COURSE_BASE_URLS_AMAZON", "http://127.0.0.1:8000/amazon")

	got, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig(%q) returned error: %v", cfgPath, err)
	}

	want := DefaultConfig()
	want.Browser = Firefox
	want.ExplicitWait = 5 * time.Second
	want.PollInterval = 250 * time.Millisecond
	want.WindowWidth, want.WindowHeight = 1280, 800
	want.BaseURLs["google"] = "http://127.0.0.1:8000/google"
	want.BaseURLs["amazon"] = "http://127.0.0.1:8000/amazon"
	want.ExtensionDirs = []string{"ext/a", "ext/b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig(%q) returned diff (-want/+got):\n%s", cfgPath, diff)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, ".env"), "COURSE_BROWSER=firefox\nCOURSE_REPORT_DIR=out\n")
	// The real environment wins over .env.
	t.Setenv("COURSE_REPORT_DIR", "from-env")
	t.Cleanup(func() { os.Unsetenv("COURSE_BROWSER") })

	got, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") returned error: %v", err)
	}
	if got.Browser != Firefox {
		t.Errorf("Browser = %q, want %q", got.Browser, Firefox)
	}
	if got.ReportDir != "from-env" {
		t.Errorf("ReportDir = %q, want %q", got.ReportDir, "from-env")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadConfig(missing file) returned nil error")
	}

	t.Setenv("COURSE_BROWSER", "safari")
	if _, err := LoadConfig(""); !errors.Is(err, ErrUnknownBrowser) {
		t.Errorf("LoadConfig() with browser safari returned %v, want ErrUnknownBrowser", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		desc    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			desc:   "defaults",
			mutate: func(*Config) {},
		},
		{
			desc:    "unknown browser",
			mutate:  func(c *Config) { c.Browser = "edge" },
			wantErr: true,
		},
		{
			desc:    "negative explicit wait",
			mutate:  func(c *Config) { c.ExplicitWait = -time.Second },
			wantErr: true,
		},
		{
			desc:    "negative page load timeout",
			mutate:  func(c *Config) { c.PageLoadTimeout = -1 },
			wantErr: true,
		},
		{
			desc:    "width without height",
			mutate:  func(c *Config) { c.WindowWidth = 800 },
			wantErr: true,
		},
		{
			desc:    "sauce user without key",
			mutate:  func(c *Config) { c.SauceUser = "me" },
			wantErr: true,
		},
		{
			desc: "sauce user and key",
			mutate: func(c *Config) {
				c.SauceUser, c.SauceKey = "me", "secret"
			},
		},
	}
	for _, test := range tests {
		c := DefaultConfig()
		test.mutate(&c)
		if err := c.Validate(); (err != nil) != test.wantErr {
			t.Errorf("%s: Validate() = %v, want error: %t", test.desc, err, test.wantErr)
		}
	}
}

func TestConfigURL(t *testing.T) {
	c := DefaultConfig()
	c.BaseURLs["course"] = "http://127.0.0.1:9000/course/"
	tests := []struct {
		desc, site, path, want string
		wantErr                bool
	}{
		{desc: "base only", site: "google", want: "https://www.google.com"},
		{desc: "path", site: "amazon", path: "/s?k=laptop", want: "https://www.amazon.com/s?k=laptop"},
		{desc: "trailing slash on base", site: "course", path: "forms", want: "http://127.0.0.1:9000/course/forms"},
		{desc: "unknown site", site: "bing", wantErr: true},
	}
	for _, test := range tests {
		got, err := c.URL(test.site, test.path)
		if (err != nil) != test.wantErr {
			t.Errorf("%s: URL() error = %v, want error: %t", test.desc, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("%s: URL() = %q, want %q", test.desc, got, test.want)
		}
	}
}
