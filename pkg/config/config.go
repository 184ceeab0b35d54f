package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/util"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Timetable TimetableConfig `yaml:"timetable"`
	Cache     CacheConfig     `yaml:"cache"`
}

type SearchConfig struct {
	MinTransferMinutes int           `yaml:"min_transfer_minutes" validate:"gte=0"`
	MaxLayoverMinutes  int           `yaml:"max_layover_minutes" validate:"gtfield=MinTransferMinutes"`
	FanOut             int           `yaml:"fan_out" validate:"gte=1"`
	Limit              int           `yaml:"limit" validate:"gte=1"`
	Timeout            time.Duration `yaml:"timeout" validate:"gt=0"`
	Workers            int           `yaml:"workers" validate:"gte=0"`

	DefaultSwitches string `yaml:"default_switches" validate:"required"`

	ExcludeDirectTrains       bool    `yaml:"exclude_direct_trains"`
	CollapseTrainCombinations bool    `yaml:"collapse_train_combinations"`
	MaxOneSwitchRatio         float64 `yaml:"max_one_switch_ratio" validate:"gte=0"`
	MaxTwoSwitchRatio         float64 `yaml:"max_two_switch_ratio" validate:"gte=0"`

	GraphCacheSize int `yaml:"graph_cache_size" validate:"gte=1"`
}

type TimetableConfig struct {
	Format          string        `yaml:"format" validate:"oneof=datameet gtfs mongodb"`
	Path            string        `yaml:"path" validate:"required_unless=Format mongodb"`
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"gte=0"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Expiration is an ISO 8601 duration such as P1D
	Expiration string `yaml:"expiration" validate:"required"`
}

func Default() *Config {
	options := routesearch.DefaultOptions()

	return &Config{
		Search: SearchConfig{
			MinTransferMinutes:        int(options.MinTransfer / time.Minute),
			MaxLayoverMinutes:         int(options.MaxLayover / time.Minute),
			FanOut:                    options.FanOut,
			Limit:                     options.Limit,
			Timeout:                   options.Timeout,
			DefaultSwitches:           routesearch.FormatSwitches(options.DefaultSwitches),
			ExcludeDirectTrains:       options.ExcludeDirectTrains,
			CollapseTrainCombinations: options.CollapseTrainCombinations,
			MaxOneSwitchRatio:         options.OneSwitchRatio,
			MaxTwoSwitchRatio:         options.TwoSwitchRatio,
			GraphCacheSize:            options.GraphCacheSize,
		},
		Timetable: TimetableConfig{
			Format: "datameet",
			Path:   "data",
		},
		Cache: CacheConfig{
			Expiration: "P1D",
		},
	}
}

// Load reads defaults, then the optional YAML file, then RAILCONNECT_ environment
// overrides, and validates the result
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := config.ApplyEnvironment(util.GetEnvironmentVariables()); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) ApplyEnvironment(variables map[string]string) error {
	env := util.Env(variables)
	var err error

	c.Timetable.Format = env.String("TIMETABLE_FORMAT", c.Timetable.Format)
	c.Timetable.Path = env.String("TIMETABLE_PATH", c.Timetable.Path)
	if c.Timetable.RefreshInterval, err = env.Duration("TIMETABLE_REFRESH", c.Timetable.RefreshInterval); err != nil {
		return fmt.Errorf("RAILCONNECT_TIMETABLE_REFRESH: %w", err)
	}

	if c.Search.MinTransferMinutes, err = env.Int("MIN_TRANSFER_MINUTES", c.Search.MinTransferMinutes); err != nil {
		return fmt.Errorf("RAILCONNECT_MIN_TRANSFER_MINUTES: %w", err)
	}
	if c.Search.MaxLayoverMinutes, err = env.Int("MAX_LAYOVER_MINUTES", c.Search.MaxLayoverMinutes); err != nil {
		return fmt.Errorf("RAILCONNECT_MAX_LAYOVER_MINUTES: %w", err)
	}
	if c.Search.FanOut, err = env.Int("FAN_OUT", c.Search.FanOut); err != nil {
		return fmt.Errorf("RAILCONNECT_FAN_OUT: %w", err)
	}
	if c.Search.Limit, err = env.Int("RESULT_LIMIT", c.Search.Limit); err != nil {
		return fmt.Errorf("RAILCONNECT_RESULT_LIMIT: %w", err)
	}
	if c.Search.Timeout, err = env.Duration("SEARCH_TIMEOUT", c.Search.Timeout); err != nil {
		return fmt.Errorf("RAILCONNECT_SEARCH_TIMEOUT: %w", err)
	}
	c.Search.DefaultSwitches = env.String("DEFAULT_SWITCHES", c.Search.DefaultSwitches)

	if c.Cache.Enabled, err = env.Bool("CACHE_ENABLED", c.Cache.Enabled); err != nil {
		return fmt.Errorf("RAILCONNECT_CACHE_ENABLED: %w", err)
	}
	c.Cache.Expiration = env.String("CACHE_EXPIRATION", c.Cache.Expiration)

	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := routesearch.ParseSwitches(c.Search.DefaultSwitches, nil); err != nil {
		return fmt.Errorf("invalid configuration: default_switches: %w", err)
	}
	if _, err := c.Cache.ExpirationDuration(time.Now()); err != nil {
		return fmt.Errorf("invalid configuration: cache expiration: %w", err)
	}
	return nil
}

// SearchOptions converts the search section into engine options
func (c *Config) SearchOptions() routesearch.Options {
	options := routesearch.DefaultOptions()

	options.MinTransfer = time.Duration(c.Search.MinTransferMinutes) * time.Minute
	options.MaxLayover = time.Duration(c.Search.MaxLayoverMinutes) * time.Minute
	options.FanOut = c.Search.FanOut
	options.Limit = c.Search.Limit
	options.Timeout = c.Search.Timeout
	options.ExcludeDirectTrains = c.Search.ExcludeDirectTrains
	options.CollapseTrainCombinations = c.Search.CollapseTrainCombinations
	options.OneSwitchRatio = c.Search.MaxOneSwitchRatio
	options.TwoSwitchRatio = c.Search.MaxTwoSwitchRatio
	options.GraphCacheSize = c.Search.GraphCacheSize
	if c.Search.Workers > 0 {
		options.Workers = c.Search.Workers
	}
	// Validate has already checked the list
	options.DefaultSwitches, _ = routesearch.ParseSwitches(c.Search.DefaultSwitches, options.DefaultSwitches)

	return options
}

func (c *CacheConfig) ExpirationDuration(from time.Time) (time.Duration, error) {
	return util.ISODuration(c.Expiration, from)
}
