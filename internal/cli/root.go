// Package cli wires the stratus command line: the root command runs the
// forecast TUI and subcommands expose the same data for scripting.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ngmaloney/stratus-terminal/internal/api"
	"github.com/ngmaloney/stratus-terminal/internal/config"
	"github.com/ngmaloney/stratus-terminal/internal/logger"
	"github.com/ngmaloney/stratus-terminal/internal/places"
	"github.com/ngmaloney/stratus-terminal/internal/ui"
)

// app holds flag values and what setup builds from them.
type app struct {
	configPath string
	apiURL     string
	units      string
	dbPath     string
	verbose    bool
	logFile    string

	place      string
	locationID int
	lat, lon   float64

	cfg    *config.Config
	client api.Client
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "stratus",
		Short: "Multi-model weather forecasts in the terminal",
		Long: `Stratus compares forecast model runs for a location.

The interactive view searches locations as you type, then shows a daily
summary and one chart per metric with every model run overlaid.

Controls:
  ↑/↓      - Navigate results
  Enter    - Select location
  Esc      - Back / Cancel
  s        - New search
  r        - Reload forecast
  u        - Toggle imperial/metric
  Ctrl+S   - Save place
  q        - Quit`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runTUI,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.stratus/config.toml)")
	pf.StringVar(&a.apiURL, "api", "", "forecast API endpoint")
	pf.StringVar(&a.units, "units", "", "display units: imperial or metric")
	pf.StringVar(&a.dbPath, "db", "", "saved places database path")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&a.logFile, "log-file", "stratus.log", "log file used by the interactive view")

	f := root.Flags()
	f.StringVar(&a.place, "place", "", "open a saved place")
	addLocationFlags(f, &a.locationID, &a.lat, &a.lon)
	root.MarkFlagsRequiredTogether("lat", "lon")
	root.MarkFlagsMutuallyExclusive("place", "location-id", "lat")

	root.AddCommand(
		newSourcesCmd(a),
		newForecastCmd(a),
		newPlacesCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the stratus command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup resolves configuration, applies flag overrides and builds the client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(a.verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIEndpoint = a.apiURL
	}
	if a.units != "" {
		cfg.Units = a.units
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.client = api.NewHTTPClient(cfg.APIEndpoint,
		api.WithTimeout(cfg.Timeout),
		api.WithSearchRate(cfg.SearchRate, cfg.SearchBurst),
	)
	logger.Debug("api endpoint %s, units %s, db %s", cfg.APIEndpoint, cfg.Units, cfg.DBPath)
	return nil
}

// placeService opens the saved places store.
func (a *app) placeService() *places.Service {
	return places.NewService(places.NewRepository(a.cfg.DBPath), a.client)
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	// The TUI owns the terminal, so logs go to a file or nowhere.
	if a.verbose {
		f, err := logger.OpenFile(a.logFile)
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		logger.SetOutput(io.Discard)
	}

	start := ui.Start{Place: a.place, LocationID: a.locationID}
	if cmd.Flags().Changed("lat") {
		start.Coords = &[2]float64{a.lat, a.lon}
	}

	svc := a.placeService()
	if _, err := svc.ListPlaces(); err != nil {
		logger.Warn("saved places unavailable: %v", err)
		if start.Place != "" {
			return fmt.Errorf("opening place %q: %w", start.Place, err)
		}
		svc = nil
	}

	p := tea.NewProgram(ui.NewModel(a.cfg, a.client, svc, start), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}
