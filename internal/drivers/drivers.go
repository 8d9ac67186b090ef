// Package drivers downloads the WebDriver servers, and optionally a Chromium
// build, that the course sessions need.
package drivers

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/glog"
	"github.com/google/go-github/v27/github"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// File describes how to download a file from the Web.
type File struct {
	URL  string
	Name string
	// Hash is the hex digest of the download; empty skips verification.
	Hash     string
	HashType string // md5, sha1 or sha256 (the default)
	// Rename moves Rename[0] to Rename[1], both relative to the manager's
	// directory, after extraction.
	Rename []string
	// Binary is the path, relative to the manager's directory, of the
	// executable the download provides.
	Binary string
}

// HashMismatchError is returned when a download does not match File.Hash.
type HashMismatchError struct {
	Name, Type, Got, Want string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("%s: got %s hash %q, want %q", e.Name, e.Type, e.Got, e.Want)
}

// Manager resolves and installs drivers into Dir.
type Manager struct {
	Dir string
	// Platform is the Chrome for Testing platform name, for example linux64.
	Platform string
	HTTP     *http.Client
	GitHub   *github.Client
	// KnownGoodURL lists Chrome for Testing versions with their downloads.
	KnownGoodURL string
	// Progress, when set, receives a progress bar per download.
	Progress io.Writer
}

// KnownGoodVersionsURL is the Chrome for Testing version index.
const KnownGoodVersionsURL = "https://googlechromelabs.github.io/chrome-for-testing/known-good-versions-with-downloads.json"

// NewManager returns a Manager for the running platform that installs into
// dir and reports download progress on stderr.
func NewManager(dir string) *Manager {
	return &Manager{
		Dir:          dir,
		Platform:     Platform(runtime.GOOS, runtime.GOARCH),
		HTTP:         http.DefaultClient,
		GitHub:       github.NewClient(nil),
		KnownGoodURL: KnownGoodVersionsURL,
		Progress:     os.Stderr,
	}
}

// Platform maps a GOOS and GOARCH to a Chrome for Testing platform name.
func Platform(goos, goarch string) string {
	switch goos {
	case "darwin":
		if goarch == "arm64" {
			return "mac-arm64"
		}
		return "mac-x64"
	case "windows":
		if goarch == "386" {
			return "win32"
		}
		return "win64"
	}
	return "linux64"
}

// Path returns name inside the manager's directory.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.Dir, name)
}

var newExecCommand = exec.CommandContext

// Install downloads the driver for browser ("chrome" or "firefox") and
// returns the path of its executable.
func (m *Manager) Install(ctx context.Context, browser string) (string, error) {
	var (
		f   File
		err error
	)
	switch browser {
	case "chrome":
		version := ""
		if v, err := m.BrowserVersion(ctx, chromeBinary()); err == nil {
			version = v
		} else {
			glog.Warningf("Could not detect the Chrome version, installing the newest chromedriver: %v", err)
		}
		f, err = m.ChromeDriverFile(ctx, version)
	case "firefox":
		f, err = m.GeckoDriverFile(ctx)
	default:
		return "", fmt.Errorf("no driver for browser %q", browser)
	}
	if err != nil {
		return "", err
	}
	if err := m.Download(ctx, f); err != nil {
		return "", err
	}
	return m.Path(f.Binary), nil
}

// InstallAll installs the driver of every browser concurrently.
func (m *Manager) InstallAll(ctx context.Context, browsers ...string) (map[string]string, error) {
	paths := make([]string, len(browsers))
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range browsers {
		i, b := i, b
		g.Go(func() error {
			p, err := m.Install(ctx, b)
			if err != nil {
				return fmt.Errorf("installing %s driver: %w", b, err)
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(browsers))
	for i, b := range browsers {
		out[b] = paths[i]
	}
	return out, nil
}

// Download fetches f into the manager's directory unless a copy with the
// right hash is already there, then extracts and renames it.
func (m *Manager) Download(ctx context.Context, f File) error {
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return err
	}
	if f.Hash != "" && m.sameHash(f) {
		glog.Infof("Skipping file %q which has already been downloaded.", f.Name)
	} else {
		glog.Infof("Downloading %q from %q", f.Name, f.URL)
		if err := m.fetch(ctx, f); err != nil {
			return err
		}
	}

	if err := m.extract(ctx, f); err != nil {
		return err
	}

	if len(f.Rename) == 2 {
		from, to := m.Path(f.Rename[0]), m.Path(f.Rename[1])
		glog.Infof("Renaming %q to %q", from, to)
		os.RemoveAll(to) // Ignore error.
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("renaming %q to %q: %w", from, to, err)
		}
	}
	if f.Binary != "" {
		if err := os.Chmod(m.Path(f.Binary), 0755); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

func newHash(typ string) hash.Hash {
	switch strings.ToLower(typ) {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	}
	return sha256.New()
}

func (m *Manager) fetch(ctx context.Context, f File) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return err
	}
	resp, err := m.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: error downloading %q: %w", f.Name, f.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: error downloading %q: %s", f.Name, f.URL, resp.Status)
	}

	out, err := os.Create(m.Path(f.Name))
	if err != nil {
		return fmt.Errorf("error creating %q: %w", m.Path(f.Name), err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing %q: %w", m.Path(f.Name), closeErr)
		}
	}()

	h := newHash(f.HashType)
	w := io.MultiWriter(out, h)
	if m.Progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(m.Progress),
			progressbar.OptionSetDescription(f.Name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		w = io.MultiWriter(w, bar)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%s: error downloading %q: %w", f.Name, f.URL, err)
	}
	if f.Hash != "" {
		if got := hex.EncodeToString(h.Sum(nil)); got != f.Hash {
			return &HashMismatchError{Name: f.Name, Type: hashName(f.HashType), Got: got, Want: f.Hash}
		}
	}
	return nil
}

func hashName(typ string) string {
	if typ == "" {
		return "sha256"
	}
	return strings.ToLower(typ)
}

func (m *Manager) sameHash(f File) bool {
	r, err := os.Open(m.Path(f.Name))
	if err != nil {
		return false
	}
	defer r.Close()

	h := newHash(f.HashType)
	if _, err := io.Copy(h, r); err != nil {
		return false
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if sum != f.Hash {
		glog.Warningf("File %q: got hash %q, expect hash %q", f.Name, sum, f.Hash)
		return false
	}
	return true
}

func (m *Manager) extract(ctx context.Context, f File) error {
	dir := m.Dir
	if dir == "" {
		dir = "."
	}
	var args []string
	switch {
	case strings.HasSuffix(f.Name, ".zip"):
		args = []string{"unzip", "-d", dir, "-o", m.Path(f.Name)}
	case strings.HasSuffix(f.Name, ".gz"):
		args = []string{"tar", "-xzf", m.Path(f.Name), "-C", dir}
	case strings.HasSuffix(f.Name, ".bz2"):
		args = []string{"tar", "-xjf", m.Path(f.Name), "-C", dir}
	default:
		return nil
	}

	glog.Infof("Unzipping %q", m.Path(f.Name))
	if out, err := newExecCommand(ctx, args[0], args[1:]...).CombinedOutput(); err != nil {
		return fmt.Errorf("error unzipping %q: %w: %s", f.Name, err, out)
	}
	return nil
}
