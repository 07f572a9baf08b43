package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"goyo.dev/transit"
)

var etaCmd = &cobra.Command{
	Use:   "eta <route_id>",
	Short: "Computes the ETA for a saved route",
	Args:  cobra.ExactArgs(1),
	RunE:  eta,
}

func init() {
	rootCmd.AddCommand(etaCmd)
}

func eta(cmd *cobra.Command, args []string) error {
	calc, err := newCalculator()
	if err != nil {
		return err
	}

	rec, err := calc.Store.Route(args[0])
	if err != nil {
		return fmt.Errorf("loading route: %w", err)
	}

	result, err := calc.ETA(cmd.Context(), transit.NormalizeRoute(rec))
	if err != nil {
		return err
	}

	fmt.Printf("%s: arrive %s (wait %ds, travel %dm)\n",
		result.Name, result.EstimatedArrival, result.WaitTime, result.TravelTime)
	for _, arr := range result.LegArrivals {
		fmt.Printf("  %s %s %s (%ds)\n",
			arr.StationName, arr.LineName, arr.ArrivalMessage, arr.ArrivalTime)
	}

	return nil
}
