package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/trackio"
)

type roundTripFlags struct {
	lat, lng   float64
	distanceKm float64
	shape      string
	direction  string
	profile    string
	elevation  string
	scenic     bool
	nature     bool
	cultural   bool
	pois       []string
	seed       string
	format     string
}

var rtFlags roundTripFlags

var roundTripCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Generate a round trip of a target length",
	Long:  "Places waypoints around the start in the requested shape, asks the routing engine for a closed route and rescales until its length is within tolerance of the target.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		req, err := rtFlags.request(cmd)
		if err != nil {
			return err
		}
		var format trackio.Format
		if rtFlags.format != "json" {
			if format, err = trackio.ParseFormat(rtFlags.format); err != nil {
				return err
			}
		}

		svc, closeFn, err := services(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		gen := svc.RoundTrips
		if rtFlags.seed != "" {
			a, b, err := parseSeed(rtFlags.seed)
			if err != nil {
				return err
			}
			gen = gen.WithSeed(a, b)
		}

		result, err := gen.Generate(ctx, req)
		if err != nil {
			return err
		}
		if format == "" {
			return writeJSON(cmd, result)
		}

		export := trackio.Export{
			Name:  fmt.Sprintf("ridekit %s %.1f km", result.Metadata.Shape, result.Metadata.ActualDistanceMeters/1000),
			Route: result.Route,
		}
		if result.PointsOfInterest != nil {
			export.POIs = trackio.POIs(result.PointsOfInterest, req.Preferences.POICategories)
		}
		data, err := trackio.Encode(format, export)
		if err != nil {
			return err
		}
		return writeOutput(cmd, data)
	},
}

// request builds the round-trip request from the flags that were set.
func (f roundTripFlags) request(cmd *cobra.Command) (domain.RoundTripRequest, error) {
	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
		return domain.RoundTripRequest{}, domain.InvalidInputf("--lat and --lng are required")
	}
	req := domain.RoundTripRequest{
		Start:                &domain.Coordinate{Lat: f.lat, Lng: f.lng},
		TargetDistanceMeters: f.distanceKm * 1000,
		Shape:                domain.Shape(f.shape),
		Direction:            domain.Direction(f.direction),
		Preferences: domain.Preferences{
			Scenic:        f.scenic,
			Nature:        f.nature,
			Cultural:      f.cultural,
			Elevation:     domain.ElevationPreference(f.elevation),
			Profile:       domain.Profile(f.profile),
			IncludePOIs:   len(f.pois) > 0,
			POICategories: f.pois,
		},
	}
	return usecases.PrepareRequest(req)
}

// parseSeed reads "a,b" or a single number, which seeds both halves.
func parseSeed(s string) (uint64, uint64, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("seed must be N or N,M")
	}
	vals := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("seed %q: %w", p, err)
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return vals[0], vals[0], nil
	}
	return vals[0], vals[1], nil
}

func init() {
	f := roundTripCmd.Flags()
	f.Float64Var(&rtFlags.lat, "lat", 0, "start latitude (required)")
	f.Float64Var(&rtFlags.lng, "lng", 0, "start longitude (required)")
	f.Float64VarP(&rtFlags.distanceKm, "distance", "d", 30, "target distance in km")
	f.StringVar(&rtFlags.shape, "shape", "loop", "loop, figure8, triangle or random")
	f.StringVar(&rtFlags.direction, "direction", "any", "any, clockwise or counterclockwise")
	f.StringVar(&rtFlags.profile, "profile", "bicycle", "bicycle or motorcycle")
	f.StringVar(&rtFlags.elevation, "elevation", "any", "any, flat or hilly")
	f.BoolVar(&rtFlags.scenic, "scenic", false, "draw random waypoints toward viewpoints")
	f.BoolVar(&rtFlags.nature, "nature", false, "draw random waypoints toward parks and reserves")
	f.BoolVar(&rtFlags.cultural, "cultural", false, "draw random waypoints toward cultural sites")
	f.StringSliceVar(&rtFlags.pois, "pois", nil, "attach POIs of these categories to the result")
	f.StringVar(&rtFlags.seed, "seed", "", "fix the random source (N or N,M) for reproducible shapes")
	f.StringVarP(&rtFlags.format, "format", "f", "json", "json, gpx, kml, geojson or polyline")
	rootCmd.AddCommand(roundTripCmd)
}
