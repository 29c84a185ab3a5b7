package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/catalog"
)

var (
	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	starStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

func newListCmd(configFile *string) *cobra.Command {
	var (
		f      catalog.Filter
		quick  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List templates matching a query and filters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				f.Query = args[0]
			}
			f.Quick = catalog.Quick(quick)
			col := a.templates(ctx)
			st := catalog.State{Favorites: a.favorites.Set(ctx), RecentRank: a.recents.Rank(ctx)}
			matched := catalog.Apply(col, f, st)
			if f.Query != "" {
				a.tracker.Track(ctx, promptstash.EventSearchUsed, map[string]string{"query": f.Query})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(matched)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatList(matched))
			fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("%d of %d templates", len(matched), len(col))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Category, "category", "c", "", "only templates in this category")
	cmd.Flags().StringSliceVarP(&f.Tags, "tag", "t", nil, "only templates carrying every given tag")
	cmd.Flags().StringVarP(&quick, "quick", "q", "", "quick filter: recent or favorites")
	cmd.Flags().BoolVar(&f.Fuzzy, "fuzzy", false, "rank by fuzzy match instead of substring filtering")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print templates as JSON")
	return cmd
}

func formatList(col promptstash.Collection) string {
	var b strings.Builder
	for _, t := range col {
		star := " "
		if t.Favorite {
			star = starStyle.Render("★")
		}
		fmt.Fprintf(&b, "%s %s  %s  %s\n", star, nameStyle.Render(t.Name), categoryStyle.Render(t.Category), dimStyle.Render(t.ID))
		if t.Description != "" {
			fmt.Fprintf(&b, "  %s\n", t.Description)
		}
	}
	return b.String()
}
