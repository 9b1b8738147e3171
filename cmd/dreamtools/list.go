package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List distributions under the dream root",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := distribution.List(cfg.Root)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
