// Command course runs the Selenium course.
//
//	course list                 # show the lessons
//	course run 01 data_driven   # run some scenarios against the sandbox
//	course drivers install all  # download chromedriver and geckodriver
//	course serve                # browse the sandbox yourself
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	course "github.com/wanmail/seleniumcourse"
)

var version = "dev"

// errFailed makes the process exit non-zero after the report was printed.
var errFailed = errors.New("some scenarios failed")

type rootFlags struct {
	config   string
	browser  string
	headless bool
	verbose  bool
}

// app carries the configuration resolved by the root command.
type app struct {
	flags rootFlags
	cfg   course.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "course",
		Short:         "Selenium WebDriver course",
		Long:          "Lessons from first locators to real-world sites, runnable against an offline sandbox or the live web.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", "", "config file (YAML, JSON or TOML)")
	pf.StringVar(&a.flags.browser, "browser", course.Chrome, "browser to drive: chrome or firefox")
	pf.BoolVar(&a.flags.headless, "headless", false, "run the browser without a window")
	pf.BoolVarP(&a.flags.verbose, "verbose", "V", false, "log session and wait details")
	pf.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newListCommand(a),
		newRunCommand(a),
		newDriversCommand(a),
		newServeCommand(a),
	)
	return root
}

// loadConfig reads the config file and environment, then applies the root
// flags the user set explicitly.
func (a *app) loadConfig(cmd *cobra.Command) error {
	if a.flags.verbose {
		if err := flag.Set("v", "1"); err != nil {
			return err
		}
		if err := flag.Set("logtostderr", "true"); err != nil {
			return err
		}
	}
	cfg, err := course.LoadConfig(a.flags.config)
	if err != nil {
		return err
	}
	pf := cmd.Flags()
	if pf.Changed("browser") {
		cfg.Browser = a.flags.browser
	}
	if pf.Changed("headless") {
		cfg.Headless = a.flags.headless
	}
	if pf.Changed("verbose") {
		cfg.Verbose = a.flags.verbose
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func main() {
	defer glog.Flush()
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		glog.Flush()
		os.Exit(1)
	}
}
