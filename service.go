package course

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/xgbutil"
	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/wanmail/seleniumcourse/internal/drivers"
)

// ErrDriverNotFound is returned when no WebDriver server binary could be
// located and AutoInstall is off.
var ErrDriverNotFound = errors.New("driver not found")

// DriverPathEnv overrides driver resolution when Config.DriverPath is empty.
const DriverPathEnv = "BROWSER_DRIVER_PATH"

var wellKnownDirs = []string{"/usr/local/bin", "/usr/bin", "/opt/homebrew/bin", "/snap/bin"}

// stopper is the part of *selenium.Service and *selenium.FrameBuffer a
// Session needs to tear down.
type stopper interface {
	Stop() error
}

// localService is a WebDriver server subprocess, plus the X frame buffer it
// renders into when one was requested.
type localService struct {
	addr    string
	svc     stopper
	fb      stopper
	display string
}

// Stop stops the service, then the frame buffer, and returns the first error.
func (l *localService) Stop() error {
	var first error
	if l.svc != nil {
		first = l.svc.Stop()
	}
	if l.fb != nil {
		if err := l.fb.Stop(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// These are replaced in tests.
var (
	startLocal    = startService
	installDriver = func(ctx context.Context, c Config) (string, error) {
		return drivers.NewManager(c.DriverDir).Install(ctx, c.Browser)
	}
	newFrameBuffer = func() (string, string, stopper, error) {
		fb, err := selenium.NewFrameBuffer()
		if err != nil {
			return "", "", nil, err
		}
		return fb.Display, fb.AuthPath, fb, nil
	}
	launchDriver = launch
	displaySize  = xDisplaySize
)

// startService resolves the driver binary for c.Browser and starts it on an
// unused local port.
func startService(ctx context.Context, c Config) (*localService, error) {
	path, err := resolveDriver(ctx, c)
	if err != nil {
		return nil, err
	}
	port, err := pickUnusedPort()
	if err != nil {
		return nil, fmt.Errorf("picking a port: %w", err)
	}

	l := &localService{}
	var opts []selenium.ServiceOption
	if c.FrameBuffer {
		display, auth, fb, err := newFrameBuffer()
		if err != nil {
			return nil, fmt.Errorf("starting frame buffer: %w", err)
		}
		l.fb, l.display = fb, display
		opts = append(opts, selenium.Display(display, auth))
		glog.V(1).Infof("service: frame buffer on display :%s", display)
	}
	if c.Verbose {
		opts = append(opts, selenium.Output(logWriter{name: c.DriverName()}))
	}

	svc, addr, err := launchDriver(c.Browser, path, port, opts...)
	if err != nil {
		l.Stop()
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}
	l.svc, l.addr = svc, addr
	glog.Infof("Started %s at %s", path, addr)
	return l, nil
}

func launch(browser, path string, port int, opts ...selenium.ServiceOption) (stopper, string, error) {
	if browser == Firefox {
		s, err := selenium.NewGeckoDriverService(path, port, opts...)
		if err != nil {
			return nil, "", err
		}
		return s, fmt.Sprintf("http://localhost:%d", port), nil
	}
	s, err := selenium.NewChromeDriverService(path, port, opts...)
	if err != nil {
		return nil, "", err
	}
	return s, fmt.Sprintf("http://localhost:%d/wd/hub", port), nil
}

// resolveDriver finds the driver binary. The first hit wins: Config.DriverPath,
// $BROWSER_DRIVER_PATH, the newest match in Config.DriverDir, the well-known
// install directories, $PATH, and finally the driver manager when
// AutoInstall is set.
func resolveDriver(ctx context.Context, c Config) (string, error) {
	name := c.DriverName()
	if c.DriverPath != "" {
		if !isExecutable(c.DriverPath) {
			return "", fmt.Errorf("driver_path %s: %w", c.DriverPath, ErrDriverNotFound)
		}
		return c.DriverPath, nil
	}
	if p := os.Getenv(DriverPathEnv); p != "" {
		if isExecutable(p) {
			return p, nil
		}
		glog.Warningf("%s=%s is not an executable file, ignoring it", DriverPathEnv, p)
	}
	if c.DriverDir != "" {
		if p := findBestPath(filepath.Join(c.DriverDir, name+"*"), true); p != "" {
			return p, nil
		}
	}
	for _, dir := range wellKnownDirs {
		if p := filepath.Join(dir, name); isExecutable(p) {
			return p, nil
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	if c.AutoInstall {
		glog.Infof("%s not found locally, installing it into %s", name, c.DriverDir)
		p, err := installDriver(ctx, c)
		if err != nil {
			return "", fmt.Errorf("installing %s: %w", name, err)
		}
		return p, nil
	}
	return "", fmt.Errorf("%s: %w (set driver_path, %s or auto_install)", name, ErrDriverNotFound, DriverPathEnv)
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Mode().Perm()&0111 != 0
}

// findBestPath returns the last regular file matching glob in lexical order,
// which for versioned names is the newest one.
func findBestPath(glob string, binary bool) string {
	matches, err := filepath.Glob(glob)
	if err != nil {
		glog.Warningf("Error globbing %q: %s", glob, err)
		return ""
	}
	if len(matches) == 0 {
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

func pickUnusedPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}

// xDisplaySize returns the root window geometry of the X display.
func xDisplaySize(display string) (int, int, error) {
	X, err := xgbutil.NewConnDisplay(":" + display)
	if err != nil {
		return 0, 0, fmt.Errorf("connecting to display :%s: %w", display, err)
	}
	defer X.Conn().Close()
	s := X.Screen()
	return int(s.WidthInPixels), int(s.HeightInPixels), nil
}

// logWriter sends each line of driver output to glog, tagged with the
// driver name.
type logWriter struct{ name string }

func (w logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		glog.Infof("[%s] %s", w.name, line)
	}
	return len(p), nil
}
