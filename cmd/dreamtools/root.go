package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	logger *slog.Logger

	flagConfig string
	flagDream  string
)

var rootCmd = &cobra.Command{
	Use:           "dreamtools",
	Short:         "Manage DeepPavlov Dream distributions",
	Long:          "dreamtools manages Dream distributions: the pipeline document, its deployment documents and their deployment to a swarm.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := LoadConfig(flagConfig)
		if err != nil {
			return usageError(err)
		}
		if flagDream != "" {
			loaded.Root = flagDream
		}
		cfg = loaded
		logger = SetupLogger(cfg)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVarP(&flagDream, "dream", "D", "", "dream root directory (overrides DREAMTOOLS_ROOT and DREAM_ROOT_DIR)")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deployCmd)
}
