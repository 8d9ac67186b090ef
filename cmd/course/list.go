package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wanmail/seleniumcourse/lessons"
	"github.com/wanmail/seleniumcourse/runner"
)

var (
	levelColor = color.New(color.FgCyan, color.Bold)
	slowColor  = color.New(color.FgYellow)
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [patterns...]",
		Short: "List the lessons and their scenarios",
		Long:  "List every scenario grouped by lesson. Patterns select scenarios the same way run does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadData(a.cfg.DataFile)
			if err != nil {
				return err
			}
			scenarios, err := runner.Select(lessons.All(lessons.Env{Data: data}), args)
			if err != nil {
				return err
			}
			printScenarios(cmd.OutOrStdout(), scenarios)
			return nil
		},
	}
}

func printScenarios(w io.Writer, scenarios []runner.Scenario) {
	for _, level := range lessons.Levels {
		var names []string
		slow := map[string]bool{}
		for _, sc := range scenarios {
			if sc.Lesson == level {
				names = append(names, sc.Name)
				slow[sc.Name] = sc.Slow
			}
		}
		if len(names) == 0 {
			continue
		}
		levelColor.Fprintf(w, "%s (%d)\n", level, len(names))
		for _, n := range names {
			fmt.Fprintf(w, "  %s", n)
			if slow[n] {
				slowColor.Fprint(w, " [slow]")
			}
			fmt.Fprintln(w)
		}
	}
}
