package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configFile string
	rootCmd := &cobra.Command{
		Use:           "promptstash",
		Short:         "Browse, fill and send prompt templates",
		Long:          "promptstash serves a catalog of YAML prompt templates kept in a Git repository.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./promptstash.yaml or the user config dir)")

	rootCmd.AddCommand(newServeCmd(&configFile))
	rootCmd.AddCommand(newListCmd(&configFile))
	rootCmd.AddCommand(newShowCmd(&configFile))
	rootCmd.AddCommand(newRenderCmd(&configFile))
	rootCmd.AddCommand(newSendCmd(&configFile))
	rootCmd.AddCommand(newWarmCmd(&configFile))
	rootCmd.AddCommand(newFavoriteCmd(&configFile))
	rootCmd.AddCommand(newProfileCmd(&configFile))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
