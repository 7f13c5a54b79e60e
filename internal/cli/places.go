package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ngmaloney/stratus-terminal/internal/places"
)

func newPlacesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "places",
		Short: "Manage saved places",
		Long:  `List, add, or remove named locations that can be opened with --place.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.placeService().ListPlaces()
			if err != nil {
				return fmt.Errorf("failed to list places: %w", err)
			}
			if len(list) == 0 {
				cmd.Println("No saved places.")
				return nil
			}
			for _, p := range list {
				cmd.Printf("%-20s %-30s %9.4f %10.4f\n", p.Name, p.Label, p.Latitude, p.Longitude)
			}
			return nil
		},
	}

	var (
		locationID int
		lat, lon   float64
	)
	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Save a location under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()

			loc, err := resolveTarget(ctx, cmd, a.client, locationID, lat, lon)
			if err != nil {
				return fmt.Errorf("failed to resolve location: %w", err)
			}
			p, err := a.placeService().SaveLocation(args[0], loc)
			if err != nil {
				return fmt.Errorf("failed to save place: %w", err)
			}
			cmd.Printf("Saved %s (%s)\n", p.Name, p.Label)
			return nil
		},
	}
	addLocationFlags(addCmd.Flags(), &locationID, &lat, &lon)
	addCmd.MarkFlagsRequiredTogether("lat", "lon")
	addCmd.MarkFlagsMutuallyExclusive("location-id", "lat")

	rmCmd := &cobra.Command{
		Use:     "rm [name]",
		Aliases: []string{"remove"},
		Short:   "Remove a saved place",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.placeService().DeletePlace(args[0])
			if errors.Is(err, places.ErrNotFound) {
				return fmt.Errorf("no saved place named %q", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to remove place: %w", err)
			}
			cmd.Printf("Removed %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, rmCmd)
	return cmd
}
