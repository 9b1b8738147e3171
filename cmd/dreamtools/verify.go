package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

var (
	flagVerifyDist string
	flagVerifyAll  bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify port consistency between pipeline and deployment documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVerifyAll {
			return verifyAll(cmd)
		}
		if flagVerifyDist == "" {
			return usageError(fmt.Errorf("either --dist or --all is required"))
		}

		dist, err := distribution.FromName(cfg.Root, flagVerifyDist)
		if err != nil {
			return err
		}
		report, err := dist.CheckPorts()
		if err != nil {
			return err
		}
		if err := report.Err(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", dist.Name)
		return nil
	},
}

func verifyAll(cmd *cobra.Command) error {
	reports, failures, err := distribution.CheckPortsAll(cfg.Root)
	if err != nil {
		return err
	}

	failed := false
	for name, loadErr := range failures {
		failed = true
		fmt.Fprintf(cmd.OutOrStdout(), "%s: load failed: %v\n", name, loadErr)
	}
	for name, report := range reports {
		if report.OK() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			continue
		}
		failed = true
		for _, m := range report.Mismatches {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, m)
		}
	}
	if failed {
		return fmt.Errorf("port verification failed")
	}
	return nil
}

func init() {
	verifyCmd.Flags().StringVar(&flagVerifyDist, "dist", "", "distribution to verify")
	verifyCmd.Flags().BoolVar(&flagVerifyAll, "all", false, "verify every distribution under the root")
}
