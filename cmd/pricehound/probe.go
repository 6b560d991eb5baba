package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricehound/pricehound/internal/fetcher"
)

// probeCmd fetches one endpoint URL over plain HTTP and pretty-prints the
// JSON payload. Quick liveness check that doesn't spend a browser session.
func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <url>",
		Short: "Fetch one endpoint URL directly and print its JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := runCtx(cmd)
			defer stop()

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			payload, err := fetcher.NewProbe(a.cfg, a.logger).Get(ctx, args[0])
			if err != nil {
				return a.finish(err)
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, payload, "", "  "); err != nil {
				return fmt.Errorf("format payload: %w", err)
			}
			fmt.Println(pretty.String())
			return nil
		},
	}
}
