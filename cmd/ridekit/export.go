package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/trackio"
)

var (
	exportFormat     string
	exportName       string
	exportSurface    bool
	exportCategories []string
)

var exportCmd = &cobra.Command{
	Use:   "export <route-file>",
	Short: "Convert a route to GPX, KML, GeoJSON or an encoded polyline",
	Long:  "Converts a route between track formats. GeoJSON output can carry surface-coloured segments (--surface); every format can carry POIs (--pois).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		format, err := trackio.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		route, err := readRoute(cmd, args[0])
		if err != nil {
			return err
		}
		export := trackio.Export{Name: exportName, Route: route}

		enrich := (exportSurface && format == trackio.FormatGeoJSON) || len(exportCategories) > 0
		if enrich {
			svc, closeFn, err := services(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if exportSurface && format == trackio.FormatGeoJSON {
				if export.Surface, err = svc.Surface.Analyze(ctx, route); err != nil {
					return err
				}
			}
			if len(exportCategories) > 0 {
				cats, err := usecases.ResolveCategories(exportCategories)
				if err != nil {
					return err
				}
				result, err := svc.POIs.Search(ctx, route, exportCategories, usecases.SearchOptions{})
				if err != nil {
					return err
				}
				order := make([]string, len(cats))
				for i, c := range cats {
					order[i] = c.Name
				}
				export.POIs = trackio.POIs(result, order)
			}
		}

		data, err := trackio.Encode(format, export)
		if err != nil {
			return err
		}
		return writeOutput(cmd, data)
	},
}

func init() {
	addInputFlag(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "gpx", "gpx, kml, geojson or polyline")
	exportCmd.Flags().StringVar(&exportName, "name", "", "track name")
	exportCmd.Flags().BoolVar(&exportSurface, "surface", false, "colour GeoJSON segments by surface")
	exportCmd.Flags().StringSliceVar(&exportCategories, "pois", nil, "include POIs of these categories")
	rootCmd.AddCommand(exportCmd)
}
