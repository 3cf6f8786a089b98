package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/intreg/internal/presentation"
	"github.com/zjrosen/intreg/internal/registry/domain"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		module string
		kind   string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled registry events, oldest first",
		Long: `List the AddIntegration, EditIntegration and RemoveIntegration events
recorded for every committed mutation, oldest first.

Examples:
  # Everything
  intreg history

  # Removals under one module
  intreg history --module 0x1111...1111 --kind RemoveIntegration

  # First ten events
  intreg history --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := domain.EventFilter{Kind: domain.EventKind(kind), Limit: limit}
			if kind != "" && !filter.Kind.IsValid() {
				return fmt.Errorf("kind must be one of %s, %s or %s, got %q",
					domain.EventAddIntegration, domain.EventEditIntegration, domain.EventRemoveIntegration, kind)
			}
			if limit < 0 {
				return fmt.Errorf("limit must not be negative, got %d", limit)
			}
			if module != "" {
				addr, err := parseAddressArg("module", module)
				if err != nil {
					return err
				}
				filter.Module = &addr
			}

			return c.withRegistry(func(r *registry) error {
				events, err := r.db.EventRepository().ListEvents(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("listing events: %w", err)
				}
				return presentation.NewFormatter(cmd.OutOrStdout()).FormatEvents(
					presentation.FromDomainEvents(events))
			})
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "only events under this module")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only events of this kind")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of events (0 = all)")
	return cmd
}
