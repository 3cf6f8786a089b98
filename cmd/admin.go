package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/intreg/internal/config"
	"github.com/zjrosen/intreg/internal/presentation"
)

func newInitCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a commented default configuration to --config, or to
.intreg/config.yaml when --config is not given.`,
		Args: cobra.NoArgs,
		// The file may not exist yet, so skip loading it.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := c.cfgFile
			if path == "" {
				path = localConfigPath
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			return presentation.NewFormatter(cmd.OutOrStdout()).Format(map[string]string{"config": path})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

func newTransferOwnershipCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-ownership NEW_OWNER",
		Short: "Hand administration of the registry to a new owner",
		Long: `Hand administration of the registry to NEW_OWNER.

Only the current owner may do this, and NEW_OWNER must not be the zero
address. The new owner is written to the config file in use.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newOwner, err := parseAddressArg("new owner", args[0])
			if err != nil {
				return err
			}
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.withRegistry(func(r *registry) error {
				if err := r.policy.TransferOwnership(cmd.Context(), caller, newOwner); err != nil {
					return err
				}
				if err := config.SaveOwner(c.configPath(), r.policy.Owner()); err != nil {
					return fmt.Errorf("saving owner: %w", err)
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(map[string]string{
					"owner":  r.policy.Owner().Hex(),
					"config": c.configPath(),
				})
			})
		},
	}
}

func newRenounceOwnershipCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "renounce-ownership",
		Short: "Leave the registry without an owner",
		Long: `Leave the registry without an owner. Every later add, edit or
remove is rejected until a new owner is written to the config by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.withRegistry(func(r *registry) error {
				if err := r.policy.RenounceOwnership(cmd.Context(), caller); err != nil {
					return err
				}
				if err := config.SaveOwner(c.configPath(), r.policy.Owner()); err != nil {
					return fmt.Errorf("saving owner: %w", err)
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(map[string]string{
					"owner":  r.policy.Owner().Hex(),
					"config": c.configPath(),
				})
			})
		},
	}
}
