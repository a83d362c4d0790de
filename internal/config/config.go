package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/saviottt/solarcalc/internal/billing"
	"github.com/saviottt/solarcalc/internal/climate"
	"github.com/saviottt/solarcalc/internal/climate/providers"
)

type AppConfig struct {
	Port        string        `mapstructure:"port"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	LogLevel    string        `mapstructure:"log_level"`

	Climate   ClimateConfig   `mapstructure:"climate"`
	Predictor PredictorConfig `mapstructure:"predictor"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Tariff    TariffConfig    `mapstructure:"tariff"`
}

type ClimateConfig struct {
	BaseURL string `mapstructure:"base_url"`

	// Normals cache retention (0 = unlimited).
	CacheMaxEntries int           `mapstructure:"cache_max_entries"`
	CacheMaxAge     time.Duration `mapstructure:"cache_max_age"`

	// WarmInterval controls how often the scheduler refreshes WarmLocations,
	// given as "lat,lon;lat,lon".
	WarmInterval  time.Duration `mapstructure:"warm_interval"`
	WarmLocations string        `mapstructure:"warm_locations"`
}

type PredictorConfig struct {
	// ModelPath is a JSON model artifact; empty means the bundled model.
	ModelPath string `mapstructure:"model_path"`
}

type GeocoderConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// TariffConfig is the default tariff for requests that do not name one.
type TariffConfig struct {
	Mode     string  `mapstructure:"mode"`
	BuyRate  float64 `mapstructure:"buy_rate"`
	SellRate float64 `mapstructure:"sell_rate"`
	// Slabs in order; a zero capacity marks the unbounded final band. Empty
	// means the KSEB domestic schedule.
	Slabs      []SlabConfig `mapstructure:"slabs"`
	ExportRate float64      `mapstructure:"export_rate"`
}

type SlabConfig struct {
	Capacity float64 `mapstructure:"capacity"`
	Rate     float64 `mapstructure:"rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("log_level", "INFO")

	v.SetDefault("climate.base_url", providers.NASAPowerBaseURL)
	v.SetDefault("climate.cache_max_entries", 256)
	v.SetDefault("climate.cache_max_age", "24h")
	v.SetDefault("climate.warm_interval", "6h")
	v.SetDefault("climate.warm_locations", "")

	v.SetDefault("predictor.model_path", "")
	v.SetDefault("geocoder.api_key", "")

	v.SetDefault("tariff.mode", string(billing.KindSlab))
	v.SetDefault("tariff.buy_rate", 0)
	v.SetDefault("tariff.sell_rate", 0)
	v.SetDefault("tariff.export_rate", billing.KSEBDomestic().ExportRate())
}

// Load reads configuration from an optional YAML file and the environment.
// path may be empty, in which case ./config.yaml or ./config/config.yaml is
// used if present. A .env file is loaded into the environment first.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if _, err := c.Climate.Locations(); err != nil {
		return nil, fmt.Errorf("invalid climate.warm_locations: %w", err)
	}
	if _, err := c.Tariff.Build(); err != nil {
		return nil, fmt.Errorf("invalid tariff: %w", err)
	}
	if c.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}

	return &c, nil
}

// Locations parses WarmLocations.
func (c ClimateConfig) Locations() ([]climate.Location, error) {
	return climate.ParseLocations(c.WarmLocations)
}

// Build returns the configured default tariff.
func (t TariffConfig) Build() (billing.Tariff, error) {
	switch billing.Kind(strings.ToLower(t.Mode)) {
	case billing.KindFlat:
		if t.BuyRate < 0 || t.SellRate < 0 {
			return nil, fmt.Errorf("%w: negative flat rate", billing.ErrInvalidTariff)
		}
		return billing.Flat{BuyRate: t.BuyRate, SellRate: t.SellRate}, nil
	case billing.KindSlab, "":
		bands := billing.KSEBDomestic().Bands()
		if len(t.Slabs) > 0 {
			bands = make([]billing.Band, len(t.Slabs))
			for i, s := range t.Slabs {
				capacity := s.Capacity
				if capacity == 0 {
					capacity = billing.Unbounded
				}
				bands[i] = billing.Band{Capacity: capacity, Rate: s.Rate}
			}
		}
		slab, err := billing.NewSlab(bands, t.ExportRate)
		if err != nil {
			return nil, err
		}
		return slab, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", billing.ErrInvalidTariff, t.Mode)
	}
}
