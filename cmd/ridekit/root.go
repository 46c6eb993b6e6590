package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/ridekit/internal/bootstrap"
	"github.com/samirrijal/ridekit/internal/pkg/config"
	"github.com/samirrijal/ridekit/internal/pkg/logging"
)

var (
	cfg        *config.Config
	outputPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "ridekit",
	Short:        "Route analysis for cyclists and motorcyclists",
	Long:         "Classifies road surfaces along a route, finds points of interest near it, generates round trips of a target length and exports tracks as GPX, KML, GeoJSON or polylines.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load("ridekit-cli")
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		level := "warn"
		if verbose {
			level = "debug"
		}
		// stdout carries command output, so logs go to stderr.
		slog.SetDefault(logging.New(os.Stderr, level, "text"))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "write the result to this file instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
}

// services wires the core without shared infrastructure: the CLI talks to
// the routing engine and Overpass directly, unless poi.source=postgis.
func services(cmd *cobra.Command) (*bootstrap.Services, func(), error) {
	var infra *bootstrap.Infra
	closeFn := func() {}
	if cfg.POI.Source == "postgis" {
		in, err := bootstrap.Connect(cmd.Context(), cfg)
		if err != nil {
			return nil, nil, err
		}
		infra, closeFn = in, in.Close
	}
	svc, err := bootstrap.NewServices(cfg, infra)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
