package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/intreg/internal/presentation"
	"github.com/zjrosen/intreg/internal/registry/domain"
)

// manifest is the batch input file:
//
//	bindings:
//	  - module: "0x1111..."
//	    name: COMPOUND
//	    adapter: "0xaaaa..."
type manifest struct {
	Bindings []manifestEntry `yaml:"bindings"`
}

type manifestEntry struct {
	Module  string `yaml:"module"`
	Name    string `yaml:"name"`
	Adapter string `yaml:"adapter"`
}

// loadManifest reads a batch manifest into the three parallel sequences the
// registry takes.
func loadManifest(path string) (modules []domain.Address, names []string, adapters []domain.Address, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, nil, fmt.Errorf("parsing manifest: %w", err)
	}

	for i, b := range m.Bindings {
		module, err := domain.ParseAddress(b.Module)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bindings[%d].module: %w", i, err)
		}
		adapter, err := domain.ParseAddress(b.Adapter)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bindings[%d].adapter: %w", i, err)
		}
		modules = append(modules, module)
		names = append(names, b.Name)
		adapters = append(adapters, adapter)
	}
	return modules, names, adapters, nil
}

type batchFunc func(ctx context.Context, caller domain.Address, modules []domain.Address, names []string, adapters []domain.Address) error

func newBatchCmd(c *cli, use, short, op string, apply func(r *registry) batchFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " MANIFEST",
		Short: short,
		Long: short + `.

MANIFEST is a YAML file:

  bindings:
    - module: "0x1111111111111111111111111111111111111111"
      name: COMPOUND
      adapter: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

Elements are applied in order. If any element is rejected nothing is
stored, and the error names the failing element's index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modules, names, adapters, err := loadManifest(args[0])
			if err != nil {
				return err
			}
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.withRegistry(func(r *registry) error {
				if err := apply(r)(cmd.Context(), caller, modules, names, adapters); err != nil {
					return err
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).Format(
					presentation.MutationDTO{Operation: op, Applied: len(modules)})
			})
		},
	}
}

func newBatchAddCmd(c *cli) *cobra.Command {
	return newBatchCmd(c, "batch-add", "Bind every adapter listed in a manifest", "BatchAddIntegration",
		func(r *registry) batchFunc { return r.svc.BatchAddIntegration })
}

func newBatchEditCmd(c *cli) *cobra.Command {
	return newBatchCmd(c, "batch-edit", "Rebind every adapter listed in a manifest", "BatchEditIntegration",
		func(r *registry) batchFunc { return r.svc.BatchEditIntegration })
}
