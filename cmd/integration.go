package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/intreg/internal/presentation"
	"github.com/zjrosen/intreg/internal/registry/domain"
)

func newAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add MODULE NAME ADAPTER",
		Short: "Bind an adapter name under a module",
		Long: `Bind NAME under MODULE to ADAPTER.

Fails if the caller is not the owner, ADAPTER is the zero address, the
controller does not recognize MODULE, or NAME is already bound.

Example:
  intreg add 0x1111...1111 COMPOUND 0xaaaa...aaaa --caller 0xad...`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, adapter, err := parseModuleAdapter(args[0], args[2])
			if err != nil {
				return err
			}
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.withRegistry(func(r *registry) error {
				if err := r.svc.AddIntegration(cmd.Context(), caller, module, args[1], adapter); err != nil {
					return err
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(
					presentation.MutationDTO{Operation: "AddIntegration", Applied: 1})
			})
		},
	}
}

func newEditCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "edit MODULE NAME ADAPTER",
		Short: "Rebind an existing adapter name to a new adapter",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, adapter, err := parseModuleAdapter(args[0], args[2])
			if err != nil {
				return err
			}
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.withRegistry(func(r *registry) error {
				if err := r.svc.EditIntegration(cmd.Context(), caller, module, args[1], adapter); err != nil {
					return err
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(
					presentation.MutationDTO{Operation: "EditIntegration", Applied: 1})
			})
		},
	}
}

func newRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "remove MODULE NAME",
		Short: "Unbind an adapter name",
		Long: `Unbind NAME under MODULE.

The controller is not consulted, so bindings of a module it no longer
recognizes can still be removed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := parseAddressArg("module", args[0])
			if err != nil {
				return err
			}
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.withRegistry(func(r *registry) error {
				if err := r.svc.RemoveIntegration(cmd.Context(), caller, module, args[1]); err != nil {
					return err
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(
					presentation.MutationDTO{Operation: "RemoveIntegration", Applied: 1})
			})
		},
	}
}

func newGetCmd(c *cli) *cobra.Command {
	var name, hash string

	cmd := &cobra.Command{
		Use:   "get MODULE (--name NAME | --hash HASH)",
		Short: "Look up the adapter bound under a module",
		Long: `Look up the adapter bound to an adapter name, or to a precomputed
name hash, under MODULE. An unbound key reports the zero address.

Examples:
  intreg get 0x1111...1111 --name COMPOUND
  intreg get 0x1111...1111 --hash $(intreg hash COMPOUND | jq -r .name_hash)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := parseAddressArg("module", args[0])
			if err != nil {
				return err
			}

			key := domain.KeyFor(module, name)
			if cmd.Flags().Changed("hash") {
				nameHash, err := domain.ParseNameHash(hash)
				if err != nil {
					return fmt.Errorf("hash: %w", err)
				}
				key = domain.BindingKey{Module: module, NameHash: nameHash}
			}

			return c.withRegistry(func(r *registry) error {
				var adapter domain.Address
				if cmd.Flags().Changed("hash") {
					adapter, err = r.svc.GetIntegrationAdapterWithHash(cmd.Context(), module, key.NameHash)
				} else {
					adapter, err = r.svc.GetIntegrationAdapter(cmd.Context(), module, name)
				}
				if err != nil {
					return err
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(
					presentation.NewLookupDTO(key, name, adapter))
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "adapter name")
	cmd.Flags().StringVar(&hash, "hash", "", "precomputed adapter name hash (hex)")
	cmd.MarkFlagsOneRequired("name", "hash")
	cmd.MarkFlagsMutuallyExclusive("name", "hash")
	return cmd
}

func newValidCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "valid MODULE NAME",
		Short: "Report whether an adapter name is bound under a module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := parseAddressArg("module", args[0])
			if err != nil {
				return err
			}
			return c.withRegistry(func(r *registry) error {
				valid, err := r.svc.IsValidIntegration(cmd.Context(), module, args[1])
				if err != nil {
					return err
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(
					presentation.ValidityDTO{Module: module.Hex(), Name: args[1], Valid: valid})
			})
		},
	}
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash NAME",
		Short: "Print the Keccak-256 hash of an adapter name",
		Args:  cobra.ExactArgs(1),
		// Needs neither configuration nor the database.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return presentation.NewFormatter(cmd.OutOrStdout()).Format(
				presentation.HashDTO{Name: args[0], NameHash: domain.HashName(args[0]).Hex()})
		},
	}
}

func parseAddressArg(what, s string) (domain.Address, error) {
	addr, err := domain.ParseAddress(s)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("%s: %w", what, err)
	}
	return addr, nil
}

func parseModuleAdapter(moduleArg, adapterArg string) (module, adapter domain.Address, err error) {
	if module, err = parseAddressArg("module", moduleArg); err != nil {
		return
	}
	adapter, err = parseAddressArg("adapter", adapterArg)
	return
}
