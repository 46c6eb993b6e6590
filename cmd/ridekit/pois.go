package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samirrijal/ridekit/internal/core/usecases"
)

var (
	poiCategories []string
	poiRadius     float64
	poiMax        int
)

var poisCmd = &cobra.Command{
	Use:   "pois <route-file>",
	Short: "Find points of interest along a route",
	Long:  "Searches the corridor around the route for the requested POI categories and lists them in route order.",
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

		result, err := svc.POIs.Search(ctx, route, poiCategories, usecases.SearchOptions{
			RadiusMeters: poiRadius,
			MaxResults:   poiMax,
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd, result)
	},
}

var poiCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the POI categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLABEL\tRULES")
		for _, c := range usecases.Categories() {
			fmt.Fprintf(w, "%s\t%s\t%d\n", c.Name, c.Label, len(c.Rules))
		}
		return w.Flush()
	},
}

func init() {
	addInputFlag(poisCmd)
	poisCmd.Flags().StringSliceVarP(&poiCategories, "categories", "c", nil, "categories to search (default all)")
	poisCmd.Flags().Float64Var(&poiRadius, "radius", 0, "search radius in meters (default from config)")
	poisCmd.Flags().IntVar(&poiMax, "max", 0, "maximum results (default from config)")
	poisCmd.AddCommand(poiCategoriesCmd)
	rootCmd.AddCommand(poisCmd)
}
