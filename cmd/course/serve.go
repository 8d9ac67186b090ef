package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wanmail/seleniumcourse/internal/sandbox"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		addr  string
		proxy bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sandbox sites until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := loadData(a.cfg.DataFile)
			if err != nil {
				return err
			}
			srv, err := sandbox.Listen(addr, sandbox.WithCredentials(data.Credentials))
			if err != nil {
				return err
			}
			defer srv.Close()

			out := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprintf(out, "Sandbox: %s\n", srv.URL)
			urls := srv.BaseURLs()
			sites := make([]string, 0, len(urls))
			for s := range urls {
				sites = append(sites, s)
			}
			sort.Strings(sites)
			for _, s := range sites {
				fmt.Fprintf(out, "  %-9s %s\n", s, urls[s])
			}
			if proxy {
				p, err := srv.StartProxy()
				if err != nil {
					return err
				}
				defer p.Close()
				fmt.Fprintf(out, "SOCKS5 proxy: %s\n", p.Addr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			color.Yellow("Shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().BoolVar(&proxy, "proxy", false, "also start the SOCKS5 proxy")
	return cmd
}
