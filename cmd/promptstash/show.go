package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/skosovsky/promptstash"
)

func newShowCmd(configFile *string) *cobra.Command {
	var (
		raw   bool
		width int
	)
	cmd := &cobra.Command{
		Use:   "show <id|path>",
		Short: "Show a template with its placeholders",
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
			if err := a.recents.Add(ctx, t.ID); err != nil {
				a.logger.WarnContext(ctx, "record recent template", "error", err)
			}
			a.tracker.Track(ctx, promptstash.EventTemplateOpened, map[string]string{"template_id": t.ID})

			md := templateMarkdown(t, a.variables.Get(ctx, t.ID))
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
			if err != nil {
				return err
			}
			out, err := r.Render(md)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")
	return cmd
}

// templateMarkdown describes t as a markdown document.
func templateMarkdown(t *promptstash.Template, saved map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Name)
	if t.Favorite {
		b.WriteString("★ favorite\n\n")
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Description)
	}
	fmt.Fprintf(&b, "**Category:** %s  \n", t.Category)
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s  \n", strings.Join(t.Tags, ", "))
	}
	if t.LastUpdated != "" {
		fmt.Fprintf(&b, "**Last updated:** %s  \n", t.LastUpdated)
	}
	if t.HTMLURL != "" {
		fmt.Fprintf(&b, "**Source:** [%s](%s)  \n", t.SourcePath, t.HTMLURL)
	}
	fmt.Fprintf(&b, "**ID:** `%s`\n\n", t.ID)

	if len(t.Placeholders) > 0 {
		b.WriteString("## Placeholders\n\n")
		for _, p := range t.Placeholders {
			fmt.Fprintf(&b, "- `%s`", p.Name)
			if p.Required {
				b.WriteString(" (required)")
			}
			if p.Description != "" {
				fmt.Fprintf(&b, ": %s", p.Description)
			}
			if v := saved[p.Name]; v != "" {
				fmt.Fprintf(&b, " [saved: %q]", v)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("## Template\n\n```\n")
	b.WriteString(t.Body)
	b.WriteString("\n```\n")
	return b.String()
}
