package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

var (
	flagCloneFrom        string
	flagCloneDisplayName string
	flagCloneAuthor      string
	flagCloneDescription string
	flagCloneOverwrite   bool
)

var cloneCmd = &cobra.Command{
	Use:   "clone <name>",
	Short: "Clone a distribution under a new name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := distribution.FromName(cfg.Root, flagCloneFrom)
		if err != nil {
			return err
		}

		clone := source.CloneAs(distribution.CloneOptions{
			Name:        args[0],
			DisplayName: flagCloneDisplayName,
			Author:      flagCloneAuthor,
			Description: flagCloneDescription,
			Now:         time.Now().UTC(),
		})
		if err := clone.Save(flagCloneOverwrite); err != nil {
			return err
		}

		logger.Info("cloned distribution", "from", source.Name, "to", clone.Name)
		fmt.Fprintln(cmd.OutOrStdout(), clone.Path)
		return nil
	},
}

func init() {
	cloneCmd.Flags().StringVar(&flagCloneFrom, "from", "", "source distribution name")
	cloneCmd.Flags().StringVar(&flagCloneDisplayName, "display-name", "", "display name")
	cloneCmd.Flags().StringVar(&flagCloneAuthor, "author", "", "author")
	cloneCmd.Flags().StringVar(&flagCloneDescription, "description", "", "description")
	cloneCmd.Flags().BoolVar(&flagCloneOverwrite, "overwrite", false, "overwrite an existing distribution")
	_ = cloneCmd.MarkFlagRequired("from")
}
