package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"goyo.dev/transit/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves ETAs over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var (
	port       string
	configPath string
)

// ServeConfig holds the optional YAML server configuration. Flags and
// environment variables override it.
type ServeConfig struct {
	Port          string `yaml:"port"`
	DBPath        string `yaml:"db_path"`
	SeoulKey      string `yaml:"seoul_api_key"`
	GyeonggiKey   string `yaml:"gyeonggi_api_key"`
	TagoKey       string `yaml:"tago_api_key"`
	BusHeadway    int    `yaml:"bus_headway_seconds"`
	SubwayHeadway int    `yaml:"subway_headway_seconds"`
}

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "Listen port")
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func loadServeConfig(path string) (ServeConfig, error) {
	cfg := ServeConfig{Port: "8080"}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(configPath)
	if err != nil {
		return err
	}

	if seoulKey == "" {
		seoulKey = cfg.SeoulKey
	}
	if gyeonggiKey == "" {
		gyeonggiKey = cfg.GyeonggiKey
	}
	if tagoKey == "" {
		tagoKey = cfg.TagoKey
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if cmd.Flags().Changed("port") || cfg.Port == "" {
		cfg.Port = port
	}

	calc, err := newCalculator()
	if err != nil {
		return err
	}
	if cfg.BusHeadway > 0 {
		calc.BusHeadway = cfg.BusHeadway
	}
	if cfg.SubwayHeadway > 0 {
		calc.SubwayHeadway = cfg.SubwayHeadway
	}

	r := mux.NewRouter()
	api.NewHandler(calc).RegisterRoutes(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	fmt.Printf("listening on :%s\n", cfg.Port)
	return server.ListenAndServe()
}
