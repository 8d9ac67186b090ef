package drivers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v27/github"
)

// fakeExecCommand is a replacement for `exec.CommandContext` that we can
// control using the TestHelperProcess function.
//
// For more information, see:
// * https://npf.io/2015/06/testing-exec-command/
// * https://golang.org/src/os/exec/exec_test.go
func fakeExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

// TestHelperProcess stands in for unzip, tar and browser binaries. The fake
// archives are text files listing the relative paths they contain.
func TestHelperProcess(t *testing.T) {
	// If this function (which masquerades as a test) is run on its own, then
	// just return quietly.
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "No command\n")
		os.Exit(2)
	}

	cmd, args := args[0], args[1:]
	switch {
	case cmd == "unzip" && len(args) == 4: // -d dir -o archive
		extract(args[3], args[1])
	case cmd == "tar" && len(args) == 4: // -x?f archive -C dir
		extract(args[1], args[3])
	case len(args) == 1 && args[0] == "--version" && !strings.Contains(cmd, "broken"):
		fmt.Println("Google Chrome 120.0.6099.109 ")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "%s: command not found\n", cmd)
	os.Exit(127)
}

func extract(archive, dir string) {
	b, err := os.ReadFile(archive)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, name := range strings.Fields(string(b)) {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := os.WriteFile(p, []byte("binary"), 0644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	os.Exit(0)
}

func useFakeExec(t *testing.T) {
	t.Helper()
	old := newExecCommand
	newExecCommand = fakeExecCommand
	t.Cleanup(func() { newExecCommand = old })
}

const (
	chromeArchive = "chromedriver-linux64/chromedriver\n"
	geckoArchive  = "geckodriver\n"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

const knownGood = `{"timestamp": "2024-01-10T09:10:03.118Z", "versions": [
{"version": "119.0.6045.105", "downloads": {"chromedriver": [{"platform": "linux64", "url": "%[1]s/dl/119/chromedriver-linux64.zip"}]}},
{"version": "120.0.6099.71", "downloads": {"chromedriver": [{"platform": "linux64", "url": "%[1]s/dl/120.71/chromedriver-linux64.zip"}]}},
{"version": "120.0.6099.109", "downloads": {"chrome": [{"platform": "linux64", "url": "%[1]s/dl/chrome.zip"}], "chromedriver": [
  {"platform": "linux64", "url": "%[1]s/dl/120.109/chromedriver-linux64.zip"},
  {"platform": "mac-arm64", "url": "%[1]s/dl/120.109/chromedriver-mac-arm64.zip"}]}},
{"version": "113.0.5672.0", "downloads": {"chrome": [{"platform": "linux64", "url": "%[1]s/dl/113/chrome.zip"}]}},
{"version": "121.0.6167.85", "downloads": {"chromedriver": [{"platform": "linux64", "url": "%[1]s/dl/121/chromedriver-linux64.zip"}]}}
]}`

const latestRelease = `{"tag_name": "v0.34.0", "assets": [
{"name": "geckodriver-v0.34.0-linux-aarch64.tar.gz", "browser_download_url": "%[1]s/dl/gecko-aarch64.tar.gz"},
{"name": "geckodriver-v0.34.0-linux64.tar.gz", "browser_download_url": "%[1]s/dl/gecko-linux64.tar.gz"},
{"name": "geckodriver-v0.34.0-linux64.tar.gz.asc", "browser_download_url": "%[1]s/dl/gecko-linux64.tar.gz.asc"},
{"name": "geckodriver-v0.34.0-macos-aarch64.tar.gz", "browser_download_url": "%[1]s/dl/gecko-macos-aarch64.tar.gz"}
]}`

type fixture struct {
	srv       *httptest.Server
	downloads int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/known-good-versions-with-downloads.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, knownGood, "http://"+r.Host)
	})
	mux.HandleFunc("/repos/mozilla/geckodriver/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, latestRelease, "http://"+r.Host)
	})
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.downloads, 1)
		if strings.Contains(r.URL.Path, "gecko") {
			io.WriteString(w, geckoArchive)
			return
		}
		io.WriteString(w, chromeArchive)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) manager(t *testing.T, platform string) *Manager {
	t.Helper()
	gh := github.NewClient(f.srv.Client())
	base, err := url.Parse(f.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	gh.BaseURL = base
	return &Manager{
		Dir:          t.TempDir(),
		Platform:     platform,
		HTTP:         f.srv.Client(),
		GitHub:       gh,
		KnownGoodURL: f.srv.URL + "/known-good-versions-with-downloads.json",
	}
}

func TestPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch, want string
	}{
		{"linux", "amd64", "linux64"},
		{"darwin", "amd64", "mac-x64"},
		{"darwin", "arm64", "mac-arm64"},
		{"windows", "amd64", "win64"},
		{"windows", "386", "win32"},
	}
	for _, test := range tests {
		if got := Platform(test.goos, test.goarch); got != test.want {
			t.Errorf("Platform(%q, %q) = %q, want %q", test.goos, test.goarch, got, test.want)
		}
	}
}

func TestChromeDriverFile(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		desc     string
		platform string
		chrome   string
		wantURL  string
		wantErr  bool
	}{
		{
			desc:     "newest patch of the installed major",
			platform: "linux64",
			chrome:   "120.0.6099.5",
			wantURL:  "/dl/120.109/chromedriver-linux64.zip",
		},
		{
			desc:     "major only",
			platform: "mac-arm64",
			chrome:   "120",
			wantURL:  "/dl/120.109/chromedriver-mac-arm64.zip",
		},
		{
			desc:     "no version picks the newest",
			platform: "linux64",
			wantURL:  "/dl/121/chromedriver-linux64.zip",
		},
		{
			desc:     "unknown major",
			platform: "linux64",
			chrome:   "99.0.4844.51",
			wantErr:  true,
		},
		{
			desc:     "unsupported platform",
			platform: "win64",
			chrome:   "119",
			wantErr:  true,
		},
		{
			desc:     "garbage version",
			platform: "linux64",
			chrome:   "latest",
			wantErr:  true,
		},
	}
	for _, test := range tests {
		got, err := f.manager(t, test.platform).ChromeDriverFile(context.Background(), test.chrome)
		if (err != nil) != test.wantErr {
			t.Errorf("%s: ChromeDriverFile() error = %v, want error: %t", test.desc, err, test.wantErr)
			continue
		}
		if test.wantErr {
			continue
		}
		if want := f.srv.URL + test.wantURL; got.URL != want {
			t.Errorf("%s: URL = %q, want %q", test.desc, got.URL, want)
		}
		if got.Binary != "chromedriver" {
			t.Errorf("%s: Binary = %q, want chromedriver", test.desc, got.Binary)
		}
	}
}

func TestGeckoDriverFile(t *testing.T) {
	f := newFixture(t)
	got, err := f.manager(t, "linux64").GeckoDriverFile(context.Background())
	if err != nil {
		t.Fatalf("GeckoDriverFile() returned error: %v", err)
	}
	want := File{URL: f.srv.URL + "/dl/gecko-linux64.tar.gz", Name: "geckodriver.tar.gz", Binary: "geckodriver"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GeckoDriverFile() returned diff (-want/+got):\n%s", diff)
	}

	if _, err := f.manager(t, "mac-x64").GeckoDriverFile(context.Background()); err == nil {
		t.Error("GeckoDriverFile() for mac-x64 returned nil error, the release has no such asset")
	}
}

func TestDownload(t *testing.T) {
	useFakeExec(t)
	f := newFixture(t)
	m := f.manager(t, "linux64")
	file := File{
		URL:    f.srv.URL + "/dl/chromedriver-linux64.zip",
		Name:   "chromedriver-linux64.zip",
		Hash:   sha(chromeArchive),
		Rename: []string{"chromedriver-linux64/chromedriver", "chromedriver"},
		Binary: "chromedriver",
	}
	ctx := context.Background()
	if err := m.Download(ctx, file); err != nil {
		t.Fatalf("Download() returned error: %v", err)
	}
	fi, err := os.Stat(filepath.Join(m.Dir, "chromedriver"))
	if err != nil {
		t.Fatalf("driver binary missing after Download(): %v", err)
	}
	if fi.Mode().Perm()&0111 == 0 {
		t.Errorf("driver binary mode = %v, want executable", fi.Mode())
	}

	if err := m.Download(ctx, file); err != nil {
		t.Fatalf("second Download() returned error: %v", err)
	}
	if got := atomic.LoadInt32(&f.downloads); got != 1 {
		t.Errorf("server saw %d downloads, want 1 (the hash matched the cached file)", got)
	}
}

func TestDownloadHashMismatch(t *testing.T) {
	useFakeExec(t)
	f := newFixture(t)
	m := f.manager(t, "linux64")
	err := m.Download(context.Background(), File{
		URL:      f.srv.URL + "/dl/chromedriver-linux64.zip",
		Name:     "chromedriver-linux64.zip",
		Hash:     "00",
		HashType: "SHA1",
	})
	var hm *HashMismatchError
	if !errors.As(err, &hm) {
		t.Fatalf("Download() returned %v, want a *HashMismatchError", err)
	}
	if hm.Type != "sha1" || hm.Want != "00" {
		t.Errorf("HashMismatchError = %+v, want type sha1 and want 00", hm)
	}
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	m := &Manager{Dir: t.TempDir(), HTTP: srv.Client()}
	if err := m.Download(context.Background(), File{URL: srv.URL + "/x.zip", Name: "x.zip"}); err == nil {
		t.Error("Download() of a 404 returned nil error")
	}
}

func TestInstallAll(t *testing.T) {
	useFakeExec(t)
	f := newFixture(t)
	m := f.manager(t, "linux64")
	m.Progress = io.Discard

	got, err := m.InstallAll(context.Background(), "chrome", "firefox")
	if err != nil {
		t.Fatalf("InstallAll() returned error: %v", err)
	}
	want := map[string]string{
		"chrome":  filepath.Join(m.Dir, "chromedriver"),
		"firefox": filepath.Join(m.Dir, "geckodriver"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("InstallAll() returned diff (-want/+got):\n%s", diff)
	}
	for _, p := range got {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("installed driver missing: %v", err)
		}
	}

	if _, err := m.InstallAll(context.Background(), "safari"); err == nil {
		t.Error("InstallAll(safari) returned nil error")
	}
}

func TestBrowserVersion(t *testing.T) {
	useFakeExec(t)
	m := &Manager{}
	got, err := m.BrowserVersion(context.Background(), "google-chrome")
	if err != nil {
		t.Fatalf("BrowserVersion() returned error: %v", err)
	}
	if got != "120.0.6099.109" {
		t.Errorf("BrowserVersion() = %q, want %q", got, "120.0.6099.109")
	}
	if _, err := m.BrowserVersion(context.Background(), "broken-chrome"); err == nil {
		t.Error("BrowserVersion() of a failing binary returned nil error")
	}
}
