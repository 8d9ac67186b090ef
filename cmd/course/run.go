package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/dataset"
	"github.com/wanmail/seleniumcourse/internal/sandbox"
	"github.com/wanmail/seleniumcourse/lessons"
	"github.com/wanmail/seleniumcourse/report"
	"github.com/wanmail/seleniumcourse/runner"
)

type runFlags struct {
	offline       bool
	slow          bool
	reportDir     string
	screenshotDir string
	driverPath    string
	autoInstall   bool
	data          string
	noProgress    bool
}

func newRunCommand(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [patterns...]",
		Short: "Run scenarios and write a report",
		Long: `Run the scenarios matching the patterns, or all of them. A pattern is a
full name (03_advanced/proxy), a scenario name (locators), a lesson prefix (02)
or a glob (*/google_*).

By default every site is served by the local sandbox; --offline=false uses the
base URLs of the configuration instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd, f, args)
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.offline, "offline", true, "serve every site from the local sandbox")
	fl.BoolVar(&f.slow, "slow", false, "include slow scenarios")
	fl.StringVar(&f.reportDir, "report-dir", "", "directory for the JSON and HTML reports")
	fl.StringVar(&f.screenshotDir, "screenshot-dir", "", "directory for failure screenshots")
	fl.StringVar(&f.driverPath, "driver-path", "", "path to chromedriver or geckodriver")
	fl.BoolVar(&f.autoInstall, "auto-install", false, "download the driver when none is found")
	fl.StringVar(&f.data, "data", "", "test data file (YAML, JSON or XLSX)")
	fl.BoolVar(&f.noProgress, "no-progress", false, "do not show a progress bar")
	return cmd
}

func loadData(path string) (dataset.Set, error) {
	if path == "" {
		return dataset.Default(), nil
	}
	return dataset.Load(path)
}

// applyRunFlags overrides cfg with the run flags the user set.
func applyRunFlags(cmd *cobra.Command, cfg *course.Config, f runFlags) {
	fl := cmd.Flags()
	if fl.Changed("slow") {
		cfg.IncludeSlow = f.slow
	}
	if f.reportDir != "" {
		cfg.ReportDir = f.reportDir
	}
	if f.screenshotDir != "" {
		cfg.ScreenshotDir = f.screenshotDir
	}
	if f.driverPath != "" {
		cfg.DriverPath = f.driverPath
	}
	if fl.Changed("auto-install") {
		cfg.AutoInstall = f.autoInstall
	}
	if f.data != "" {
		cfg.DataFile = f.data
	}
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, f runFlags, patterns []string) error {
	cfg := a.cfg
	applyRunFlags(cmd, &cfg, f)

	data, err := loadData(cfg.DataFile)
	if err != nil {
		return err
	}
	env := lessons.Env{Data: data}
	if f.offline {
		srv, err := sandbox.Start(sandbox.WithCredentials(data.Credentials))
		if err != nil {
			return fmt.Errorf("starting sandbox: %w", err)
		}
		defer srv.Close()
		proxy, err := srv.StartProxy()
		if err != nil {
			return fmt.Errorf("starting proxy: %w", err)
		}
		defer proxy.Close()
		cfg.BaseURLs = srv.BaseURLs()
		env.ProxyAddr = proxy.Addr
		glog.Infof("Sandbox at %s, proxy at %s", srv.URL, proxy.Addr)
	}
	scenarios, err := runner.Select(lessons.All(env), patterns)
	if err != nil {
		return err
	}

	r := runner.New(cfg)
	if !f.noProgress && !cfg.Verbose {
		r.Progress = cmd.ErrOrStderr()
	}
	run := r.Run(ctx, scenarios)
	run.Print(cmd.OutOrStdout())
	if err := writeReports(cmd.OutOrStdout(), run, cfg); err != nil {
		return err
	}
	if !run.OK() {
		return errFailed
	}
	return nil
}

func writeReports(w io.Writer, run *report.Run, cfg course.Config) error {
	green := color.New(color.FgGreen)
	p, err := run.WriteJSON(cfg.ReportDir)
	if err != nil {
		return fmt.Errorf("writing JSON report: %w", err)
	}
	green.Fprintf(w, "JSON report: %s\n", p)
	if !cfg.GenerateHTMLReport {
		return nil
	}
	if p, err = run.WriteHTML(cfg.ReportDir); err != nil {
		return fmt.Errorf("writing HTML report: %w", err)
	}
	green.Fprintf(w, "HTML report: %s\n", p)
	return nil
}
