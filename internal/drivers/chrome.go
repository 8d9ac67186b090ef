package drivers

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"path"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/blang/semver"
	"github.com/golang/glog"
	"google.golang.org/api/option"
)

type cftDownload struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type cftVersion struct {
	Version   string `json:"version"`
	Downloads struct {
		Chrome       []cftDownload `json:"chrome"`
		ChromeDriver []cftDownload `json:"chromedriver"`
	} `json:"downloads"`
}

type cftIndex struct {
	Versions []cftVersion `json:"versions"`
}

// chromeVersion parses a MAJOR.MINOR.BUILD.PATCH Chrome version. MINOR is
// always 0, so BUILD and PATCH become the semver minor and patch.
func chromeVersion(s string) (semver.Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 4 {
		return semver.Parse(parts[0] + "." + parts[2] + "." + parts[3])
	}
	return semver.ParseTolerant(s)
}

// ChromeDriverFile picks the newest chromedriver from the Chrome for Testing
// index whose major version matches chromeVersion. An empty chromeVersion
// picks the newest chromedriver overall.
func (m *Manager) ChromeDriverFile(ctx context.Context, chrome string) (File, error) {
	var (
		want semver.Version
		err  error
	)
	if chrome != "" {
		if want, err = chromeVersion(chrome); err != nil {
			return File{}, fmt.Errorf("invalid Chrome version %q: %w", chrome, err)
		}
	}

	idx, err := m.knownGoodVersions(ctx)
	if err != nil {
		return File{}, err
	}
	var (
		best    semver.Version
		bestURL string
	)
	for _, cv := range idx.Versions {
		v, err := chromeVersion(cv.Version)
		if err != nil {
			glog.V(2).Infof("drivers: skipping Chrome version %q: %v", cv.Version, err)
			continue
		}
		if chrome != "" && v.Major != want.Major {
			continue
		}
		for _, d := range cv.Downloads.ChromeDriver {
			if d.Platform == m.Platform && (bestURL == "" || v.GT(best)) {
				best, bestURL = v, d.URL
			}
		}
	}
	if bestURL == "" {
		if chrome == "" {
			return File{}, fmt.Errorf("no chromedriver for %s", m.Platform)
		}
		return File{}, fmt.Errorf("no chromedriver for Chrome %d on %s", want.Major, m.Platform)
	}
	glog.V(1).Infof("drivers: chromedriver %s for %s", best, m.Platform)

	dir := "chromedriver-" + m.Platform
	bin := "chromedriver"
	if strings.HasPrefix(m.Platform, "win") {
		bin += ".exe"
	}
	return File{
		URL:    bestURL,
		Name:   dir + ".zip",
		Rename: []string{path.Join(dir, bin), bin},
		Binary: bin,
	}, nil
}

func (m *Manager) knownGoodVersions(ctx context.Context) (*cftIndex, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.KnownGoodURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching Chrome for Testing versions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching Chrome for Testing versions: %s", resp.Status)
	}
	var idx cftIndex
	if err := json.NewDecoder(resp.Body).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decoding Chrome for Testing versions: %w", err)
	}
	return &idx, nil
}

// ChromiumSnapshotFile describes the latest Linux Chromium snapshot build.
func (m *Manager) ChromiumSnapshotFile(ctx context.Context, opts ...option.ClientOption) (File, error) {
	const (
		// Bucket URL: https://console.cloud.google.com/storage/browser/chromium-browser-snapshots
		storageBktName = "chromium-browser-snapshots"
		prefixLinux64  = "Linux_x64"
		lastChangeFile = "Linux_x64/LAST_CHANGE"
		chromeFilename = "chrome-linux.zip"
	)

	gcsPath := fmt.Sprintf("gs://%s/", storageBktName)
	opts = append([]option.ClientOption{option.WithHTTPClient(m.HTTP)}, opts...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return File{}, fmt.Errorf("cannot create a storage client for downloading the chrome browser: %w", err)
	}
	defer client.Close()

	bkt := client.Bucket(storageBktName)
	r, err := bkt.Object(lastChangeFile).NewReader(ctx)
	if err != nil {
		return File{}, fmt.Errorf("cannot create a reader for %s%s file: %w", gcsPath, lastChangeFile, err)
	}
	defer r.Close()

	// Read the last change file content for the latest build directory name
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("cannot read from %s%s file: %w", gcsPath, lastChangeFile, err)
	}

	build := strings.TrimSpace(string(data))
	pkg := path.Join(prefixLinux64, build, chromeFilename)
	attrs, err := bkt.Object(pkg).Attrs(ctx)
	if err != nil {
		return File{}, fmt.Errorf("cannot get the chrome package %s%s attrs: %w", gcsPath, pkg, err)
	}

	return File{
		URL:      attrs.MediaLink,
		Name:     chromeFilename,
		Hash:     hex.EncodeToString(attrs.MD5),
		HashType: "md5",
		Rename:   []string{"chrome-linux", "chromium"},
		Binary:   "chromium/chrome",
	}, nil
}

var versionRE = regexp.MustCompile(`\d+(\.\d+)+`)

// BrowserVersion runs `binary --version` and returns the version number it
// prints.
func (m *Manager) BrowserVersion(ctx context.Context, binary string) (string, error) {
	out, err := newExecCommand(ctx, binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", binary, err)
	}
	v := versionRE.FindString(string(out))
	if v == "" {
		return "", fmt.Errorf("%s --version printed no version: %q", binary, strings.TrimSpace(string(out)))
	}
	return v, nil
}

var chromeBinaries = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"}

// chromeBinary returns the first Chrome executable on $PATH, or
// "google-chrome" when there is none.
func chromeBinary() string {
	for _, b := range chromeBinaries {
		if p, err := exec.LookPath(b); err == nil {
			return p
		}
	}
	return chromeBinaries[0]
}
