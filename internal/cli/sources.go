package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ngmaloney/stratus-terminal/internal/api"
	"github.com/ngmaloney/stratus-terminal/internal/forecast"
)

func newSourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List forecast sources and the metrics they provide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()

			sources, metrics, err := api.FetchReference(ctx, a.client)
			if err != nil {
				return fmt.Errorf("failed to load sources: %w", err)
			}
			if len(sources) == 0 {
				cmd.Println("No forecast sources available.")
				return nil
			}

			catalog := forecast.NewCatalog(sources, metrics)
			for i, src := range catalog.Sources() {
				if i > 0 {
					cmd.Println()
				}
				cmd.Printf("%s (%s)\n", src.Name, src.ShortName)
				if src.CoverageArea != "" {
					cmd.Printf("  Coverage:   %s\n", src.CoverageArea)
				}
				if src.Resolution != "" {
					cmd.Printf("  Resolution: %s\n", src.Resolution)
				}
				if src.UpdateFrequency != "" {
					cmd.Printf("  Updates:    %s\n", src.UpdateFrequency)
				}
				if src.SrcURL != "" {
					cmd.Printf("  URL:        %s\n", src.SrcURL)
				}

				var names []string
				for _, field := range src.Fields {
					if m, ok := catalog.Metric(field.MetricID); ok {
						names = append(names, m.Name)
					}
				}
				if len(names) > 0 {
					cmd.Printf("  Metrics:    %s\n", strings.Join(names, ", "))
				}
			}
			return nil
		},
	}
}
