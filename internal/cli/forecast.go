package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ngmaloney/stratus-terminal/internal/api"
	"github.com/ngmaloney/stratus-terminal/internal/forecast"
	"github.com/ngmaloney/stratus-terminal/internal/models"
	"github.com/ngmaloney/stratus-terminal/internal/units"
)

func addLocationFlags(f *pflag.FlagSet, id *int, lat, lon *float64) {
	f.IntVar(id, "location-id", 0, "forecast location id")
	f.Float64Var(lat, "lat", 0, "latitude")
	f.Float64Var(lon, "lon", 0, "longitude")
}

// resolveTarget looks up the location named by --location-id or --lat/--lon.
func resolveTarget(ctx context.Context, cmd *cobra.Command, c api.LocationClient, id int, lat, lon float64) (models.Location, error) {
	switch {
	case cmd.Flags().Changed("location-id"):
		return c.Location(ctx, id)
	case cmd.Flags().Changed("lat"):
		return c.LocationByCoords(ctx, lat, lon)
	}
	return models.Location{}, errors.New("either --location-id or --lat/--lon is required")
}

type forecastReport struct {
	Location models.Location   `json:"location"`
	Units    string            `json:"units"`
	Day      *forecast.DayView `json:"day,omitempty"`
	Metrics  []metricReport    `json:"metrics"`
}

type metricReport struct {
	ID     int            `json:"id"`
	Name   string         `json:"name"`
	Unit   string         `json:"unit"`
	Series []seriesReport `json:"series"`
}

type seriesReport struct {
	Source  int           `json:"source_id"`
	Label   string        `json:"label"`
	RunTime time.Time     `json:"run_time"`
	Latest  bool          `json:"latest"`
	Points  []pointReport `json:"points"`
}

type pointReport struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

func newForecastCmd(a *app) *cobra.Command {
	var (
		locationID int
		lat, lon   float64
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the forecast summary and model runs for a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()

			loc, err := resolveTarget(ctx, cmd, a.client, locationID, lat, lon)
			if err != nil {
				return fmt.Errorf("failed to resolve location: %w", err)
			}

			report, err := a.buildReport(ctx, loc)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd, report)
			return nil
		},
	}

	f := cmd.Flags()
	addLocationFlags(f, &locationID, &lat, &lon)
	f.BoolVar(&asJSON, "json", false, "print JSON instead of text")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("location-id", "lat")
	return cmd
}

// buildReport fetches and aggregates everything shown for loc.
func (a *app) buildReport(ctx context.Context, loc models.Location) (*forecastReport, error) {
	sources, metrics, err := api.FetchReference(ctx, a.client)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	wx, summaries, err := api.FetchForecast(ctx, a.client, loc, a.cfg.ForecastHours, a.cfg.SummaryDays, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to load forecast: %w", err)
	}

	catalog := forecast.NewCatalog(sources, metrics)
	conv := units.NewConverter(a.cfg.System())
	series, err := forecast.NewAggregator(catalog, conv, a.cfg.DisplayMetrics).Aggregate(wx)
	if err != nil {
		return nil, fmt.Errorf("failed to build series: %w", err)
	}

	report := &forecastReport{Location: loc, Units: conv.System().String()}

	day, err := forecast.SelectDay(summaries, 0, conv)
	switch {
	case errors.Is(err, forecast.ErrNoSummary):
	case err != nil:
		return nil, fmt.Errorf("failed to build summary: %w", err)
	default:
		report.Day = &day
	}

	for _, id := range series.MetricIDs() {
		metric, ok := catalog.Metric(id)
		if !ok {
			continue
		}
		mr := metricReport{ID: id, Name: metric.Name, Unit: metric.Units}
		if _, unit, err := conv.Convert(0, metric.Units); err == nil {
			mr.Unit = unit
		}
		for _, s := range series[id] {
			sr := seriesReport{
				Source:  s.SourceID,
				Label:   s.Label,
				RunTime: time.Unix(s.RunTime, 0).UTC(),
				Latest:  s.Latest,
				Points:  make([]pointReport, len(s.Points)),
			}
			for i, p := range s.Points {
				sr.Points[i] = pointReport{Time: p.X.UTC(), Value: p.Y}
			}
			mr.Series = append(mr.Series, sr)
		}
		report.Metrics = append(report.Metrics, mr)
	}
	return report, nil
}

func printReport(cmd *cobra.Command, r *forecastReport) {
	cmd.Printf("%s (%.4f, %.4f)\n", r.Location.Name, r.Location.Lat, r.Location.Lon)

	if d := r.Day; d != nil {
		line := forecast.Capitalize(d.Cover)
		if line == "" {
			line = "Unknown"
		}
		if d.Current != nil {
			line += ", " + d.Current.String()
		}
		cmd.Printf("%s. High %s, low %s\n", line, d.High, d.Low)
		if d.Narrative != "" {
			cmd.Println(d.Narrative)
		}
	} else {
		cmd.Println("No summary available")
	}

	for _, m := range r.Metrics {
		cmd.Printf("\n%s (%s)\n", m.Name, m.Unit)
		for _, s := range m.Series {
			if !s.Latest {
				continue
			}
			if len(s.Points) == 0 {
				continue
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, p := range s.Points {
				lo, hi = math.Min(lo, p.Value), math.Max(hi, p.Value)
			}
			cmd.Printf("  %-40s %8g .. %-8g (%d points)\n", s.Label, lo, hi, len(s.Points))
		}
	}
}
