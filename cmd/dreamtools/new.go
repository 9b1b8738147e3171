package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/namegen"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create distributions and their parts",
}

// -----------------------------------------------------------------------------
// new dist
// -----------------------------------------------------------------------------

var (
	flagNewDistFrom        string
	flagNewDistServices    []string
	flagNewDistDisplayName string
	flagNewDistAuthor      string
	flagNewDistDescription string
	flagNewDistOverwrite   bool
)

var newDistCmd = &cobra.Command{
	Use:   "dist <name>",
	Short: "Create a distribution from a template distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		template, err := distribution.FromName(cfg.Root, flagNewDistFrom)
		if err != nil {
			return err
		}

		dist := template
		if len(flagNewDistServices) > 0 {
			dist = template.Filter(flagNewDistServices)
		}
		dist = dist.CloneAs(distribution.CloneOptions{
			Name:        name,
			DisplayName: flagNewDistDisplayName,
			Author:      flagNewDistAuthor,
			Description: flagNewDistDescription,
			Now:         time.Now().UTC(),
		})
		if err := dist.GenerateOverride(); err != nil {
			return err
		}
		if err := dist.Save(flagNewDistOverwrite); err != nil {
			return err
		}

		logger.Info("created distribution", "name", name, "from", flagNewDistFrom)
		fmt.Fprintln(cmd.OutOrStdout(), dist.Path)
		return nil
	},
}

// -----------------------------------------------------------------------------
// new local
// -----------------------------------------------------------------------------

var (
	flagNewLocalDropPorts     bool
	flagNewLocalSingleReplica bool
)

var newLocalCmd = &cobra.Command{
	Use:   "local <dist>",
	Short: "Generate local.yml from the dev and proxy documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dist, err := distribution.FromName(cfg.Root, args[0])
		if err != nil {
			return err
		}
		err = dist.GenerateLocal(distribution.LocalOptions{
			DropPorts:     flagNewLocalDropPorts,
			SingleReplica: flagNewLocalSingleReplica,
		})
		if err != nil {
			return err
		}
		if err := dist.Save(true); err != nil {
			return err
		}

		logger.Info("generated local document", "dist", dist.Name)
		return nil
	},
}

// -----------------------------------------------------------------------------
// new dff
// -----------------------------------------------------------------------------

var (
	flagNewDFFDist string
	flagNewDFFPort int
)

var newDFFCmd = &cobra.Command{
	Use:   "dff <name>",
	Short: "Add a DFF HTTP skill to a distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagNewDFFPort == 0 {
			return usageError(fmt.Errorf("--port is required"))
		}

		dist, err := distribution.FromName(cfg.Root, flagNewDFFDist)
		if err != nil {
			return err
		}

		name := namegen.NewUUID().Generate(args[0])
		skill := distribution.NewDFFSkill(name, flagNewDFFPort)
		if err := dist.AddDFFSkill(skill); err != nil {
			return err
		}
		if err := dist.GenerateOverride(); err != nil {
			return err
		}
		if err := dist.Save(true); err != nil {
			return err
		}

		logger.Info("added dff skill", "skill", name, "dist", dist.Name, "port", flagNewDFFPort)
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

func init() {
	newDistCmd.Flags().StringVar(&flagNewDistFrom, "from", "dream", "template distribution name")
	newDistCmd.Flags().StringSliceVar(&flagNewDistServices, "services", nil, "seed services to keep (dependency closure applies)")
	newDistCmd.Flags().StringVar(&flagNewDistDisplayName, "display-name", "", "display name")
	newDistCmd.Flags().StringVar(&flagNewDistAuthor, "author", "", "author")
	newDistCmd.Flags().StringVar(&flagNewDistDescription, "description", "", "description")
	newDistCmd.Flags().BoolVar(&flagNewDistOverwrite, "overwrite", false, "overwrite an existing distribution")

	newLocalCmd.Flags().BoolVar(&flagNewLocalDropPorts, "drop-ports", false, "strip host port bindings (agent keeps its own)")
	newLocalCmd.Flags().BoolVar(&flagNewLocalSingleReplica, "single-replica", false, "pin every container to one replica")

	newDFFCmd.Flags().StringVar(&flagNewDFFDist, "dist", "", "target distribution name")
	newDFFCmd.Flags().IntVar(&flagNewDFFPort, "port", 0, "skill HTTP port")
	_ = newDFFCmd.MarkFlagRequired("dist")

	newCmd.AddCommand(newDistCmd)
	newCmd.AddCommand(newLocalCmd)
	newCmd.AddCommand(newDFFCmd)
}
