package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var departuresCmd = &cobra.Command{
	Use:   "departures <from_terminal> <to_terminal>",
	Short: "Lists upcoming intercity bus departures between two terminals",
	Args:  cobra.ExactArgs(2),
	RunE:  departures,
}

var (
	express bool
	count   int
)

func init() {
	departuresCmd.Flags().BoolVarP(&express, "express", "e", false, "Query the express bus network instead of intercity")
	departuresCmd.Flags().IntVarP(&count, "count", "n", 3, "Number of departures to list")
	rootCmd.AddCommand(departuresCmd)
}

func departures(cmd *cobra.Command, args []string) error {
	calc, err := newCalculator()
	if err != nil {
		return err
	}

	found, err := calc.Schedules.UpcomingDepartures(cmd.Context(), args[0], args[1], count, express)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("no departures found")
		return nil
	}

	for _, dep := range found {
		fmt.Printf("%s -> %s  %-6s %d원  (in %dm)\n",
			dep.DepartureTime, dep.ArrivalTime, dep.Grade, dep.Charge, dep.WaitMinutes)
	}

	return nil
}
