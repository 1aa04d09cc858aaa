package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/sunscope/solar"
)

func newTimesCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "times",
		Short: "Print the day's sun times and the sun position at each",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			date, err := resolveDate(cfg, dateFlag)
			if err != nil {
				return err
			}
			lat, lon := cfg.Location.Latitude, cfg.Location.Longitude
			times := solar.TimesFor(date, lat, lon)

			events := []struct {
				name string
				at   time.Time
			}{
				{"Night ends", times.NightEnd},
				{"Nautical dawn", times.NauticalDawn},
				{"Dawn", times.Dawn},
				{"Sunrise", times.Sunrise},
				{"Sunrise ends", times.SunriseEnd},
				{"Golden hour ends", times.GoldenHourEnd},
				{"Solar noon", times.SolarNoon},
				{"Golden hour", times.GoldenHour},
				{"Sunset starts", times.SunsetStart},
				{"Sunset", times.Sunset},
				{"Dusk", times.Dusk},
				{"Nautical dusk", times.NauticalDusk},
				{"Night", times.Night},
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				if e.at.IsZero() {
					rows = append(rows, []string{e.name, "-", "-", "-"})
					continue
				}
				pos := solar.PositionAt(e.at, lat, lon)
				rows = append(rows, []string{
					e.name,
					e.at.Format("15:04"),
					fmt.Sprintf("%.1f°", pos.Altitude*180/math.Pi),
					fmt.Sprintf("%.1f°", compassBearing(pos.Azimuth)),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s at %.4f, %.4f (%s)\n", date.Format("Mon 02 Jan 2006"), lat, lon, date.Location())
			fmt.Fprintln(out, renderTable(
				[]string{"Event", "Time", "Altitude", "Bearing"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			if !times.Valid() {
				fmt.Fprintln(out, "The sun does not rise and set on this day; exports need an explicit window.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Day as YYYY-MM-DD (default today)")
	return cmd
}

// compassBearing converts a south-based azimuth in radians to degrees
// clockwise from north.
func compassBearing(azimuth float64) float64 {
	deg := math.Mod(azimuth*180/math.Pi+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
