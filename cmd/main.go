package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goyo.dev/transit"
	"goyo.dev/transit/intercity"
	"goyo.dev/transit/realtime"
	"goyo.dev/transit/storage"
	"goyo.dev/transit/subway"
)

var rootCmd = &cobra.Command{
	Use:          "transit",
	Short:        "Commute ETA tool",
	Long:         "Computes arrival estimates for saved commute routes from Korean transit feeds",
	SilenceUsage: true,
}

var (
	seoulKey    string
	gyeonggiKey string
	tagoKey     string
	dbPath      string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&seoulKey, "seoul-key", "", "", "Seoul open data API key (or SEOUL_API_KEY)")
	rootCmd.PersistentFlags().StringVarP(&gyeonggiKey, "gyeonggi-key", "", "", "Gyeonggi open data API key (or GYEONGGI_API_KEY)")
	rootCmd.PersistentFlags().StringVarP(&tagoKey, "tago-key", "", "", "TAGO open data API key (or TAGO_API_KEY)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "", "", "SQLite database directory (in-memory if empty)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func apiKey(flag, env string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(env)
}

// The calculator talks to every feed, so all three credentials are
// checked before anything is wired up. A missing key would otherwise
// only surface as swallowed upstream errors and estimate-only output.
func resolveKeys() (seoul, gyeonggi, tago string, err error) {
	seoul = apiKey(seoulKey, "SEOUL_API_KEY")
	gyeonggi = apiKey(gyeonggiKey, "GYEONGGI_API_KEY")
	tago = apiKey(tagoKey, "TAGO_API_KEY")

	var missing []string
	if seoul == "" {
		missing = append(missing, "SEOUL_API_KEY")
	}
	if gyeonggi == "" {
		missing = append(missing, "GYEONGGI_API_KEY")
	}
	if tago == "" {
		missing = append(missing, "TAGO_API_KEY")
	}
	if len(missing) > 0 {
		return "", "", "", fmt.Errorf("missing API keys: %s", strings.Join(missing, ", "))
	}
	return seoul, gyeonggi, tago, nil
}

func openStorage() (storage.Storage, error) {
	if dbPath == "" {
		return storage.NewSQLiteStorage()
	}
	return storage.NewSQLiteStorage(storage.SQLiteConfig{OnDisk: true, Directory: dbPath})
}

func newCalculator() (*transit.Calculator, error) {
	seoul, gyeonggi, tago, err := resolveKeys()
	if err != nil {
		return nil, err
	}

	store, err := openStorage()
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	network, err := subway.Load()
	if err != nil {
		return nil, fmt.Errorf("loading subway network: %w", err)
	}

	location, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return nil, err
	}

	fetcher := realtime.NewCachingFetcher(realtime.DefaultTTL)
	intercityClient := intercity.NewClient(tago, fetcher, location)

	return transit.NewCalculator(
		store,
		network,
		realtime.NewCityBusClient(seoul, fetcher),
		realtime.NewGyeonggiBusClient(gyeonggi, fetcher),
		realtime.NewSubwayClient(seoul, fetcher),
		intercity.NewService(intercityClient, intercityClient, store, location),
		location,
	), nil
}
