package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/ridekit/internal/pkg/trackio"
)

var analyzeGeoJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <route-file>",
	Short: "Classify the road surface along a route",
	Long:  "Splits the route into ~100 m segments, classifies each one from OpenStreetMap road tags and prints the surface report. Use - to read the route from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		route, err := readRoute(cmd, args[0])
		if err != nil {
			return err
		}
		svc, closeFn, err := services(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := svc.Surface.Analyze(ctx, route)
		if err != nil {
			return err
		}
		if analyzeGeoJSON {
			data, err := trackio.FeatureCollection(route, report, nil).MarshalJSON()
			if err != nil {
				return err
			}
			return writeOutput(cmd, data)
		}
		return writeJSON(cmd, report)
	},
}

func init() {
	addInputFlag(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeGeoJSON, "geojson", false, "print the coloured segments as a GeoJSON FeatureCollection")
	rootCmd.AddCommand(analyzeCmd)
}
