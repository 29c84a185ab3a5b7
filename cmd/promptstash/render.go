package main

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/dispatch"
)

// valueFlags are the placeholder value flags shared by render and send.
type valueFlags struct {
	set     map[string]string
	noSaved bool
	save    bool
}

func (v *valueFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringToStringVarP(&v.set, "set", "s", nil, "placeholder value as name=value (repeatable)")
	cmd.Flags().BoolVar(&v.noSaved, "no-saved", false, "ignore values saved for this template")
	cmd.Flags().BoolVar(&v.save, "save", false, "save the resulting values for this template")
}

// resolve merges saved values with flag values; flags win.
func (v *valueFlags) resolve(ctx context.Context, a *app, t *promptstash.Template) (map[string]string, error) {
	vals := map[string]string{}
	if !v.noSaved {
		maps.Copy(vals, a.variables.Get(ctx, t.ID))
	}
	maps.Copy(vals, v.set)
	if v.save {
		if err := a.variables.Save(ctx, t.ID, vals); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

func newDispatcher(a *app) *dispatch.Dispatcher {
	opts := []dispatch.Option{
		dispatch.WithProfile(a.profile),
		dispatch.WithTracker(a.tracker),
		dispatch.WithLogger(a.logger),
	}
	if !clipboard.Unsupported {
		opts = append(opts, dispatch.WithClipboard(dispatch.SystemClipboard{}))
	}
	return dispatch.New(opts...)
}

func newRenderCmd(configFile *string) *cobra.Command {
	var (
		vf          valueFlags
		toClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "render <id|path>",
		Short: "Render a template with placeholder values",
		Long: "Render prints the live preview: lines whose placeholders have no value are left out.\n" +
			"With --copy the required placeholders must be filled and the profile is prepended.",
		Args: cobra.ExactArgs(1),
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
			vals, err := vf.resolve(ctx, a, t)
			if err != nil {
				return err
			}
			if !toClipboard {
				fmt.Fprintln(cmd.OutOrStdout(), promptstash.Render(t, vals))
				if missing := promptstash.MissingRequired(t.Placeholders, vals); len(missing) > 0 {
					fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("missing required: %v", missing)))
				}
				return nil
			}
			out, err := newDispatcher(a).Copy(ctx, t, vals)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Text)
			if out.Copied {
				fmt.Fprintln(os.Stderr, dimStyle.Render("copied to clipboard"))
			}
			return nil
		},
	}
	vf.register(cmd)
	cmd.Flags().BoolVar(&toClipboard, "copy", false, "check required fields, prepend the profile and copy to the clipboard")
	return cmd
}

func newSendCmd(configFile *string) *cobra.Command {
	var (
		vf   valueFlags
		tool string
	)
	cmd := &cobra.Command{
		Use:   "send <id|path>",
		Short: "Prepare a prompt and print the URL that opens it in an AI tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tl, err := dispatch.ParseTool(tool)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.lookup(ctx, args[0])
			if err != nil {
				return err
			}
			vals, err := vf.resolve(ctx, a, t)
			if err != nil {
				return err
			}
			out, err := newDispatcher(a).Send(ctx, t, vals, tl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.URL)
			switch {
			case out.PasteHint && out.Copied:
				fmt.Fprintln(os.Stderr, dimStyle.Render("prompt copied; paste it into "+string(tl)))
			case out.PasteHint:
				fmt.Fprintln(os.Stderr, dimStyle.Render("prompt too long to prefill; run render --copy and paste it"))
			}
			return nil
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVar(&tool, "tool", string(dispatch.ToolChatGPT), "chatgpt, claude, grok or gemini")
	return cmd
}
