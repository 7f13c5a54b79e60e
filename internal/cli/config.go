package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ngmaloney/stratus-terminal/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			c := a.cfg
			cmd.Printf("api.endpoint        %s\n", c.APIEndpoint)
			cmd.Printf("api.timeout         %s\n", c.Timeout)
			cmd.Printf("display.units       %s\n", c.Units)
			cmd.Printf("display.hours       %d\n", c.ForecastHours)
			cmd.Printf("display.days        %d\n", c.SummaryDays)
			cmd.Printf("display.metrics     %s\n", joinInts(c.DisplayMetrics))
			cmd.Printf("search.debounce     %s\n", c.SearchDebounce)
			cmd.Printf("search.min_length   %d\n", c.SearchMinLength)
			cmd.Printf("search.rate         %g/s burst %d\n", c.SearchRate, c.SearchBurst)
			cmd.Printf("database.path       %s\n", c.DBPath)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the resolved configuration to a TOML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := a.cfg.Save(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
