package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skosovsky/promptstash"
)

func newFavoriteCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fav",
		Aliases: []string{"favorite"},
		Short:   "Manage favorite templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id|path>",
		Short: "Add or remove a template from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.lookup(ctx, args[0])
			if err != nil {
				return err
			}
			on, err := a.favorites.Toggle(ctx, t.ID)
			if err != nil {
				return err
			}
			event, verb := promptstash.EventFavoriteRemoved, "removed from"
			if on {
				event, verb = promptstash.EventFavoriteAdded, "added to"
			}
			a.tracker.Track(ctx, event, map[string]string{"template_id": t.ID})
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s favorites\n", t.Name, verb)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.favorites.Clear(cmd.Context())
		},
	})
	return cmd
}

func newProfileCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the profile prepended to sent prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), a.profile.Get(cmd.Context()))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set [text]",
		Short: "Save the profile; reads stdin when no text is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 1 {
				text = args[0]
			} else {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				text = string(b)
			}
			a, err := newApp(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.profile.Save(cmd.Context(), strings.TrimSpace(text))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the saved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.profile.Clear(cmd.Context())
		},
	})
	return cmd
}
