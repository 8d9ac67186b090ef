package drivers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/golang/glog"
)

var geckoAssets = map[string]string{
	"linux64":   `linux64\.tar\.gz$`,
	"mac-x64":   `macos\.tar\.gz$`,
	"mac-arm64": `macos-aarch64\.tar\.gz$`,
	"win64":     `win64\.zip$`,
	"win32":     `win32\.zip$`,
}

// GeckoDriverFile describes the geckodriver asset of the latest
// mozilla/geckodriver GitHub release for the manager's platform.
func (m *Manager) GeckoDriverFile(ctx context.Context) (File, error) {
	const owner, repo = "mozilla", "geckodriver"
	pattern, ok := geckoAssets[m.Platform]
	if !ok {
		return File{}, fmt.Errorf("no geckodriver build for %s", m.Platform)
	}
	assetRE := regexp.MustCompile(`^geckodriver-v[\d.]+-` + pattern)

	rel, _, err := m.GitHub.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return File{}, fmt.Errorf("finding the latest geckodriver release: %w", err)
	}
	for _, a := range rel.Assets {
		if !assetRE.MatchString(a.GetName()) {
			continue
		}
		u := a.GetBrowserDownloadURL()
		if u == "" {
			return File{}, fmt.Errorf("%s does not have a download URL", a.GetName())
		}
		glog.V(1).Infof("drivers: geckodriver %s asset %s", rel.GetTagName(), a.GetName())
		f := File{URL: u, Name: "geckodriver.tar.gz", Binary: "geckodriver"}
		if m.Platform == "win64" || m.Platform == "win32" {
			f.Name, f.Binary = "geckodriver.zip", "geckodriver.exe"
		}
		return f, nil
	}
	return File{}, fmt.Errorf("release %s for %s not found at https://github.com/%s/%s/releases", rel.GetTagName(), m.Platform, owner, repo)
}
