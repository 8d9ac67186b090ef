package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	course "github.com/wanmail/seleniumcourse"
	"github.com/wanmail/seleniumcourse/internal/drivers"
)

type driversFlags struct {
	dir           string
	chromeVersion string
	chromium      bool
}

func newDriversCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Manage browser drivers",
	}
	cmd.AddCommand(newInstallCommand(a))
	return cmd
}

// browsersArg expands the install argument to browser names.
func browsersArg(args []string) ([]string, error) {
	if len(args) == 0 || args[0] == "all" {
		return []string{course.Chrome, course.Firefox}, nil
	}
	switch args[0] {
	case course.Chrome, course.Firefox:
		return []string{args[0]}, nil
	}
	return nil, fmt.Errorf("unknown browser %q, want chrome, firefox or all", args[0])
}

func newInstallCommand(a *app) *cobra.Command {
	var f driversFlags
	cmd := &cobra.Command{
		Use:       "install [chrome|firefox|all]",
		Short:     "Download chromedriver, geckodriver or a Chromium snapshot",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{course.Chrome, course.Firefox, "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := f.dir
			if dir == "" {
				dir = a.cfg.DriverDir
			}
			m := drivers.NewManager(dir)
			m.Progress = cmd.ErrOrStderr()
			out := cmd.OutOrStdout()

			if f.chromium {
				file, err := m.ChromiumSnapshotFile(ctx)
				if err != nil {
					return err
				}
				if err := m.Download(ctx, file); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(out, "chromium: %s\n", m.Path(file.Binary))
			}

			browsers, err := browsersArg(args)
			if err != nil {
				return err
			}
			if f.chromeVersion != "" {
				if len(browsers) != 1 || browsers[0] != course.Chrome {
					return fmt.Errorf("--chrome-version only applies to chrome")
				}
				file, err := m.ChromeDriverFile(ctx, f.chromeVersion)
				if err != nil {
					return err
				}
				if err := m.Download(ctx, file); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(out, "chrome: %s\n", m.Path(file.Binary))
				return nil
			}

			paths, err := m.InstallAll(ctx, browsers...)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(paths))
			for b := range paths {
				names = append(names, b)
			}
			sort.Strings(names)
			for _, b := range names {
				color.New(color.FgGreen).Fprintf(out, "%s: %s\n", b, paths[b])
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.dir, "dir", "", "install directory (default from the config, drivers/)")
	fl.StringVar(&f.chromeVersion, "chrome-version", "", "install the chromedriver matching this Chrome version")
	fl.BoolVar(&f.chromium, "chromium", false, "also download the latest Linux Chromium snapshot")
	return cmd
}
