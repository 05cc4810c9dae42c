package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

// Config is the on-disk CLI configuration, read from
// ~/.config/autofit/config.toml. Every section is optional; missing keys
// keep their defaults, and command flags override the file.
type Config struct {
	Ranges  RangesSection  `toml:"ranges"`
	Page    PageSection    `toml:"page"`
	Cache   CacheSection   `toml:"cache"`
	History HistorySection `toml:"history"`
	Server  ServerSection  `toml:"server"`
}

// RangesSection configures the search bounds and tolerances.
type RangesSection struct {
	FontMin          float64 `toml:"font_min"`
	FontMax          float64 `toml:"font_max"`
	FontTolerance    float64 `toml:"font_tolerance"`
	SpacingMin       float64 `toml:"spacing_min"`
	SpacingMax       float64 `toml:"spacing_max"`
	SpacingTolerance float64 `toml:"spacing_tolerance"`
	MaxIterations    int     `toml:"max_iterations"`
}

// PageSection configures the page the content must fit.
type PageSection struct {
	WidthPx   float64 `toml:"width_px"`
	HeightPx  float64 `toml:"height_px"`
	PaddingPx float64 `toml:"padding_px"`
}

// CacheSection configures solve-result caching.
type CacheSection struct {
	Enabled   bool   `toml:"enabled"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// HistorySection configures run persistence for the server.
type HistorySection struct {
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// ServerSection configures the HTTP API server.
type ServerSection struct {
	Addr string `toml:"addr"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	ranges := layout.DefaultRanges()
	geom := oracle.DefaultGeometry()
	return Config{
		Ranges: RangesSection{
			FontMin:          ranges.FontMin,
			FontMax:          ranges.FontMax,
			FontTolerance:    ranges.FontTolerance,
			SpacingMin:       ranges.SpacingMin,
			SpacingMax:       ranges.SpacingMax,
			SpacingTolerance: ranges.SpacingTolerance,
			MaxIterations:    ranges.MaxIterations,
		},
		Page: PageSection{
			WidthPx:   geom.WidthPx,
			HeightPx:  geom.HeightPx,
			PaddingPx: geom.PaddingPx,
		},
		Cache: CacheSection{Enabled: true},
		History: HistorySection{
			MongoDB: appName,
		},
		Server: ServerSection{Addr: ":8080"},
	}
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing file is not an error; defaults apply.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// RangeConfig converts the ranges section to the search configuration.
func (c Config) RangeConfig() layout.RangeConfig {
	return layout.RangeConfig{
		FontMin:          c.Ranges.FontMin,
		FontMax:          c.Ranges.FontMax,
		FontTolerance:    c.Ranges.FontTolerance,
		SpacingMin:       c.Ranges.SpacingMin,
		SpacingMax:       c.Ranges.SpacingMax,
		SpacingTolerance: c.Ranges.SpacingTolerance,
		MaxIterations:    c.Ranges.MaxIterations,
	}
}

// Geometry converts the page section to the oracle's page geometry.
func (c Config) Geometry() oracle.PageGeometry {
	return oracle.PageGeometry{
		WidthPx:   c.Page.WidthPx,
		HeightPx:  c.Page.HeightPx,
		PaddingPx: c.Page.PaddingPx,
	}
}
