package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"goyo.dev/transit/realtime"
)

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals <stop_code_or_station>",
	Short: "Shows live arrivals for a bus stop or subway station",
	Args:  cobra.ExactArgs(1),
	RunE:  arrivals,
}

var asSubway bool

func init() {
	arrivalsCmd.Flags().BoolVarP(&asSubway, "subway", "s", false, "Treat the argument as a subway station name")
	rootCmd.AddCommand(arrivalsCmd)
}

func arrivals(cmd *cobra.Command, args []string) error {
	fetcher := realtime.NewCachingFetcher(realtime.DefaultTTL)

	var found []realtime.Arrival
	var err error
	switch {
	case asSubway:
		client := realtime.NewSubwayClient(apiKey(seoulKey, "SEOUL_API_KEY"), fetcher)
		found, err = client.StationArrivals(cmd.Context(), args[0])
	case realtime.IsCityStopCode(args[0]):
		client := realtime.NewCityBusClient(apiKey(seoulKey, "SEOUL_API_KEY"), fetcher)
		found, err = client.StopArrivals(cmd.Context(), args[0])
	default:
		client := realtime.NewGyeonggiBusClient(apiKey(gyeonggiKey, "GYEONGGI_API_KEY"), fetcher)
		stationID, rerr := client.ResolveStation(cmd.Context(), args[0], "")
		if rerr != nil {
			return rerr
		}
		if stationID == "" {
			return fmt.Errorf("no station found for %s", args[0])
		}
		found, err = client.StationArrivals(cmd.Context(), stationID)
	}
	if err != nil {
		return err
	}

	if len(found) == 0 {
		fmt.Println("no arrivals")
		return nil
	}
	for _, arr := range found {
		fmt.Printf("%-12s %-8s %v  %s\n",
			arr.LineName, arr.Direction,
			time.Duration(arr.Seconds)*time.Second, arr.Message)
	}

	return nil
}
