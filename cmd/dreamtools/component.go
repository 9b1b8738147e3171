package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

// -----------------------------------------------------------------------------
// add component
// -----------------------------------------------------------------------------

var (
	flagAddDist    string
	flagAddService string
)

var addCmd = &cobra.Command{
	Use:   "add <group> <name>",
	Short: "Add a component to a distribution",
	Long:  "Add a component to a distribution. The service record is read as JSON from --service-file; container records for loaded documents are regenerated from the graph.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, name := args[0], args[1]

		data, err := os.ReadFile(flagAddService)
		if err != nil {
			return usageError(fmt.Errorf("read service file: %w", err))
		}
		svc := &pipeline.Service{}
		if err := json.Unmarshal(data, svc); err != nil {
			return usageError(fmt.Errorf("parse service file: %w", err))
		}

		dist, err := distribution.FromName(cfg.Root, flagAddDist)
		if err != nil {
			return err
		}
		if err := dist.AddComponent(group, name, svc, nil); err != nil {
			return err
		}
		if err := dist.GenerateOverride(); err != nil {
			return err
		}
		if err := dist.Save(true); err != nil {
			return err
		}

		logger.Info("added component", "group", group, "name", name, "dist", dist.Name)
		return nil
	},
}

// -----------------------------------------------------------------------------
// remove component
// -----------------------------------------------------------------------------

var flagRemoveDist string

var removeCmd = &cobra.Command{
	Use:   "remove <group> <name>",
	Short: "Remove a component from a distribution",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, name := args[0], args[1]

		dist, err := distribution.FromName(cfg.Root, flagRemoveDist)
		if err != nil {
			return err
		}
		if err := dist.RemoveComponent(group, name); err != nil {
			return err
		}
		if err := dist.GenerateOverride(); err != nil {
			return err
		}
		if err := dist.Save(true); err != nil {
			return err
		}

		logger.Info("removed component", "group", group, "name", name, "dist", dist.Name)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&flagAddDist, "dist", "", "target distribution name")
	addCmd.Flags().StringVar(&flagAddService, "service-file", "", "path to the service record JSON")
	_ = addCmd.MarkFlagRequired("dist")
	_ = addCmd.MarkFlagRequired("service-file")

	removeCmd.Flags().StringVar(&flagRemoveDist, "dist", "", "target distribution name")
	_ = removeCmd.MarkFlagRequired("dist")
}
