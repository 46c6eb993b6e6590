package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/trackio"
)

var inputFormat string

// addInputFlag registers --input-format on commands that read a route.
func addInputFlag(c *cobra.Command) {
	c.Flags().StringVar(&inputFormat, "input-format", "", "route format (gpx, geojson, polyline); defaults to the file extension")
}

// routeFormat picks the decoder for path: the explicit flag wins, then the
// file extension. Reading stdin ("-") needs the flag.
func routeFormat(path, explicit string) (trackio.Format, error) {
	if explicit != "" {
		return trackio.ParseFormat(explicit)
	}
	ext := filepath.Ext(path)
	if path == "-" || ext == "" {
		return "", fmt.Errorf("cannot infer the format of %q, use --input-format", path)
	}
	return trackio.ParseFormat(ext)
}

// readRoute loads and validates a route from a file or stdin.
func readRoute(cmd *cobra.Command, path string) (domain.Route, error) {
	format, err := routeFormat(path, inputFormat)
	if err != nil {
		return domain.Route{}, err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("read route: %w", err)
	}
	return trackio.Decode(format, data)
}

// writeOutput sends data to --output or stdout.
func writeOutput(cmd *cobra.Command, data []byte) error {
	if outputPath != "" {
		return os.WriteFile(outputPath, data, 0o644)
	}
	_, err := cmd.OutOrStdout().Write(data)
	return err
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd, append(data, '\n'))
}
