package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultWaterServicesURL = "https://waterservices.usgs.gov/nwis/iv/"
	defaultRTFIURL          = "https://api.waterdata.usgs.gov/rtfi-api"
	defaultOGCURL           = "https://api.waterdata.usgs.gov/ogcapi/v0"
)

// Config holds environment-driven settings for the server.
type Config struct {
	Transport        string // "stdio", "http", or "both"
	Port             int
	WaterServicesURL string
	RTFIURL          string
	OGCURL           string
}

// loadConfig reads configuration from environment variables (optionally .env).
func loadConfig() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Transport:        "stdio",
		Port:             8000,
		WaterServicesURL: defaultWaterServicesURL,
		RTFIURL:          defaultRTFIURL,
		OGCURL:           defaultOGCURL,
	}

	if v := strings.TrimSpace(os.Getenv("MCP_TRANSPORT")); v != "" {
		switch v {
		case "stdio", "http", "both":
			cfg.Transport = v
		default:
			return cfg, fmt.Errorf("invalid MCP_TRANSPORT: %s", v)
		}
	}

	if portStr := strings.TrimSpace(os.Getenv("PORT")); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	if v := strings.TrimSpace(os.Getenv("USGS_WATER_SERVICES_URL")); v != "" {
		cfg.WaterServicesURL = v
	}
	if v := strings.TrimSpace(os.Getenv("USGS_RTFI_URL")); v != "" {
		cfg.RTFIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("USGS_OGC_URL")); v != "" {
		cfg.OGCURL = v
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP shim.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
