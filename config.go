package course

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported browsers.
const (
	Chrome  = "chrome"
	Firefox = "firefox"
)

// ErrUnknownBrowser is returned for a Browser other than Chrome or Firefox.
var ErrUnknownBrowser = errors.New("unknown browser")

// Config controls how sessions are started and where artifacts go.
type Config struct {
	Browser  string `mapstructure:"browser"`
	Headless bool   `mapstructure:"headless"`
	// Maximize applies when no window size is set.
	Maximize     bool `mapstructure:"maximize"`
	WindowWidth  int  `mapstructure:"window_width"`
	WindowHeight int  `mapstructure:"window_height"`

	ImplicitWait    time.Duration `mapstructure:"implicit_wait"`
	ExplicitWait    time.Duration `mapstructure:"explicit_wait"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout"`

	// BaseURLs maps a site name (google, gmail, facebook, amazon, course)
	// to its root URL.
	BaseURLs map[string]string `mapstructure:"base_urls"`

	TakeScreenshots    bool   `mapstructure:"take_screenshots"`
	ScreenshotDir      string `mapstructure:"screenshot_dir"`
	GenerateHTMLReport bool   `mapstructure:"html_report"`
	ReportDir          string `mapstructure:"report_dir"`

	DriverPath  string `mapstructure:"driver_path"`
	BrowserPath string `mapstructure:"browser_path"`
	DriverDir   string `mapstructure:"driver_dir"`
	AutoInstall bool   `mapstructure:"auto_install"`
	FrameBuffer bool   `mapstructure:"frame_buffer"`

	// Proxy is a SOCKS5 host:port every browser request is sent through.
	Proxy         string   `mapstructure:"proxy"`
	ExtensionDirs []string `mapstructure:"extension_dirs"`

	RemoteURL string `mapstructure:"remote_url"`
	SauceUser string `mapstructure:"sauce_user"`
	SauceKey  string `mapstructure:"sauce_key"`

	IncludeSlow bool   `mapstructure:"include_slow"`
	DataFile    string `mapstructure:"data_file"`
	Verbose     bool   `mapstructure:"verbose"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Browser:         Chrome,
		Maximize:        true,
		ExplicitWait:    10 * time.Second,
		PollInterval:    500 * time.Millisecond,
		PageLoadTimeout: 30 * time.Second,
		BaseURLs: map[string]string{
			"google":   "https://www.google.com",
			"gmail":    "https://mail.google.com",
			"facebook": "https://www.facebook.com",
			"amazon":   "https://www.amazon.com",
		},
		TakeScreenshots:    true,
		ScreenshotDir:      "test_screenshots",
		GenerateHTMLReport: true,
		ReportDir:          "test_reports",
		DriverDir:          "drivers",
	}
}

// EnvPrefix prefixes every environment variable LoadConfig reads, for
// example COURSE_BROWSER or COURSE_BASE_URLS_GOOGLE.
const EnvPrefix = "COURSE"

var dotEnvFiles = []string{".env"}

func loadDotEnv() error {
	for _, f := range dotEnvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// Variables already set in the environment take precedence.
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
		glog.V(1).Infof("config: loaded %s", f)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("browser", c.Browser)
	v.SetDefault("headless", c.Headless)
	v.SetDefault("maximize", c.Maximize)
	v.SetDefault("window_width", c.WindowWidth)
	v.SetDefault("window_height", c.WindowHeight)
	v.SetDefault("implicit_wait", c.ImplicitWait)
	v.SetDefault("explicit_wait", c.ExplicitWait)
	v.SetDefault("poll_interval", c.PollInterval)
	v.SetDefault("page_load_timeout", c.PageLoadTimeout)
	for site, u := range c.BaseURLs {
		v.SetDefault("base_urls."+site, u)
	}
	v.SetDefault("take_screenshots", c.TakeScreenshots)
	v.SetDefault("screenshot_dir", c.ScreenshotDir)
	v.SetDefault("html_report", c.GenerateHTMLReport)
	v.SetDefault("report_dir", c.ReportDir)
	v.SetDefault("driver_path", c.DriverPath)
	v.SetDefault("browser_path", c.BrowserPath)
	v.SetDefault("driver_dir", c.DriverDir)
	v.SetDefault("auto_install", c.AutoInstall)
	v.SetDefault("frame_buffer", c.FrameBuffer)
	v.SetDefault("proxy", c.Proxy)
	v.SetDefault("extension_dirs", c.ExtensionDirs)
	v.SetDefault("remote_url", c.RemoteURL)
	v.SetDefault("sauce_user", c.SauceUser)
	v.SetDefault("sauce_key", c.SauceKey)
	v.SetDefault("include_slow", c.IncludeSlow)
	v.SetDefault("data_file", c.DataFile)
	v.SetDefault("verbose", c.Verbose)
}

// LoadConfig layers, from lowest to highest precedence, DefaultConfig, the
// config file at path (any format viper reads; skipped when path is empty)
// and COURSE_* environment variables, including those set by a .env file in
// the working directory.
func LoadConfig(path string) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	v := viper.New()
	setDefaults(v, DefaultConfig())
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		glog.V(1).Infof("config: read %s", v.ConfigFileUsed())
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Browser {
	case Chrome, Firefox:
	default:
		return fmt.Errorf("%w %q: want %q or %q", ErrUnknownBrowser, c.Browser, Chrome, Firefox)
	}
	for name, d := range map[string]time.Duration{
		"implicit_wait":     c.ImplicitWait,
		"explicit_wait":     c.ExplicitWait,
		"poll_interval":     c.PollInterval,
		"page_load_timeout": c.PageLoadTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, d)
		}
	}
	if (c.WindowWidth > 0) != (c.WindowHeight > 0) {
		return fmt.Errorf("window_width and window_height must be set together")
	}
	if (c.SauceUser == "") != (c.SauceKey == "") {
		return fmt.Errorf("sauce_user and sauce_key must be set together")
	}
	return nil
}

// DriverName is the executable name of the WebDriver server for Browser.
func (c Config) DriverName() string {
	if c.Browser == Firefox {
		return "geckodriver"
	}
	return "chromedriver"
}
