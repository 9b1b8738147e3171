package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/shell/deploy"
)

var (
	flagDeployPrefix    string
	flagDeployPortainer bool
	flagDeployDryRun    bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy <dist>",
	Short: "Deploy a distribution to a swarm",
	Long:  "Deploy a distribution as a docker stack, either over SSH against a swarm manager or through the Portainer stack API.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dist, err := distribution.FromName(cfg.Root, args[0])
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

		if flagDeployPrefix != "" {
			dist, err = deploy.Namespace(dist, flagDeployPrefix)
			if err != nil {
				return err
			}
		}

		if flagDeployDryRun {
			fmt.Fprintln(cmd.OutOrStdout(), deploy.StackCommand(dist, cfg.Deploy.RemoteRoot))
			return nil
		}
		if flagDeployPortainer {
			return deployPortainer(cmd, dist)
		}
		return deploySwarm(cmd, dist)
	},
}

func deploySwarm(cmd *cobra.Command, dist *distribution.Distribution) error {
	if cfg.Deploy.Host == "" {
		return usageError(fmt.Errorf("deploy.host is not configured"))
	}
	key, err := os.ReadFile(cfg.Deploy.KeyFile)
	if err != nil {
		return usageError(fmt.Errorf("read key file: %w", err))
	}

	deployer, err := deploy.NewSwarmDeployer(deploy.SwarmConfig{
		Host:           cfg.Deploy.Host,
		Port:           cfg.Deploy.Port,
		User:           cfg.Deploy.User,
		PrivateKey:     key,
		CommandTimeout: cfg.Deploy.Timeout,
	}, logger)
	if err != nil {
		return err
	}
	defer deployer.Close()

	if err := deployer.Deploy(cmd.Context(), dist, cfg.Deploy.RemoteRoot); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deployed %s to %s\n", dist.Name, cfg.Deploy.Host)
	return nil
}

func deployPortainer(cmd *cobra.Command, dist *distribution.Distribution) error {
	if cfg.Deploy.PortainerURL == "" {
		return usageError(fmt.Errorf("deploy.portainer_url is not configured"))
	}

	doc, err := dist.Doc(compose.KindOverride)
	if err != nil {
		return err
	}
	stackFile, err := doc.Marshal()
	if err != nil {
		return err
	}

	client := deploy.NewPortainer(deploy.PortainerConfig{
		BaseURL: cfg.Deploy.PortainerURL,
		APIKey:  cfg.Deploy.PortainerKey,
	}, logger)

	stacks, err := client.GetStacks(cmd.Context())
	if err != nil {
		return err
	}
	for _, stack := range stacks {
		if stack.Name == dist.Name {
			if err := client.UpdateStack(cmd.Context(), stack.ID, stackFile, true, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated stack %s (id %d)\n", stack.Name, stack.ID)
			return nil
		}
	}

	stack, err := client.CreateStack(cmd.Context(), dist.Name, stackFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created stack %s (id %d)\n", stack.Name, stack.ID)
	return nil
}

func init() {
	deployCmd.Flags().StringVar(&flagDeployPrefix, "prefix", "", "namespace prefix for shared swarms (e.g. user42_)")
	deployCmd.Flags().BoolVar(&flagDeployPortainer, "portainer", false, "deploy through the Portainer stack API")
	deployCmd.Flags().BoolVar(&flagDeployDryRun, "dry-run", false, "print the stack deploy command and exit")
}
