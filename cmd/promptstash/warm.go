package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skosovsky/promptstash/cache"
	"github.com/skosovsky/promptstash/snapshot"
)

func newWarmCmd(configFile *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Ingest the live source into the cache and optionally write a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.cache.Refresh(ctx)
			if res.Tier != cache.TierNetwork {
				if res.Err != nil {
					return fmt.Errorf("live source unavailable, serving %s data: %w", res.Tier, res.Err)
				}
				return fmt.Errorf("live source unavailable, serving %s data", res.Tier)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cached %d templates\n", len(res.Templates))
			if out == "" {
				return nil
			}
			if err := snapshot.WriteFile(out, snapshot.New(res.Templates, time.UnixMilli(res.Timestamp))); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote snapshot %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write a snapshot file for serving as cache.snapshot")
	return cmd
}
