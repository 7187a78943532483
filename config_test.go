package main

import (
	"strings"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MCP_TRANSPORT", "PORT", "USGS_WATER_SERVICES_URL", "USGS_RTFI_URL", "USGS_OGC_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("Transport = %q, want stdio", cfg.Transport)
	}
	if cfg.Port != 8000 {
		t.Fatalf("Port = %d, want 8000", cfg.Port)
	}
	if !strings.HasPrefix(cfg.WaterServicesURL, "https://waterservices.usgs.gov") {
		t.Fatalf("WaterServicesURL = %q", cfg.WaterServicesURL)
	}
	if !strings.Contains(cfg.RTFIURL, "rtfi-api") {
		t.Fatalf("RTFIURL = %q", cfg.RTFIURL)
	}
	if !strings.Contains(cfg.OGCURL, "ogcapi") {
		t.Fatalf("OGCURL = %q", cfg.OGCURL)
	}
}

func TestLoadConfigPortOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.ListenAddr() != ":9090" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr())
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "not-a-port")

	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected error for invalid PORT")
	}
}

func TestLoadConfigTransport(t *testing.T) {
	clearConfigEnv(t)

	for _, mode := range []string{"stdio", "http", "both"} {
		t.Setenv("MCP_TRANSPORT", mode)
		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("loadConfig(%s): %v", mode, err)
		}
		if cfg.Transport != mode {
			t.Fatalf("Transport = %q, want %q", cfg.Transport, mode)
		}
	}

	t.Setenv("MCP_TRANSPORT", "sse")
	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected error for unsupported transport")
	}
}

func TestLoadConfigBaseURLOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("USGS_RTFI_URL", "http://localhost:9101/rtfi")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.RTFIURL != "http://localhost:9101/rtfi" {
		t.Fatalf("RTFIURL = %q", cfg.RTFIURL)
	}
	if !strings.Contains(cfg.OGCURL, "ogcapi") {
		t.Fatalf("OGCURL should keep its default, got %q", cfg.OGCURL)
	}
}
