// Package config loads the demoinspect configuration from demoinspect.yml and DEMOINSPECT_
// prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/leighmacdonald/demoinspect/pkg/log"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	ErrReadConfig     = errors.New("failed to read config file")
	ErrFormatConfig   = errors.New("invalid config file format")
	ErrDecodeDuration = errors.New("failed to decode duration")
	ErrInvalidConfig  = errors.New("invalid config value")
)

const (
	configName = "demoinspect"
	envPrefix  = "demoinspect"
)

type General struct {
	// DemoPath is the directory holding recorded demos.
	DemoPath string `mapstructure:"demo_path"`
	// ReplayPath is the game's replay directory, tf/replay/client/replays.
	ReplayPath string `mapstructure:"replay_path"`
	// TickRate overrides the rate used for timestamps, 0 uses the rate reported by the demo.
	TickRate float64 `mapstructure:"tick_rate"`
	// CleanupMaxPct is the disk usage percentage above which unmarked demos are removed.
	CleanupMaxPct float32 `mapstructure:"cleanup_max_pct"`
}

type RCON struct {
	Address           string        `mapstructure:"address"`
	Password          string        `mapstructure:"password"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CommandsPerSecond int           `mapstructure:"commands_per_second"`
}

type Log struct {
	Level            string  `mapstructure:"level"`
	File             string  `mapstructure:"file"`
	SentryDSN        string  `mapstructure:"sentry_dsn"`
	SentrySampleRate float64 `mapstructure:"sentry_sample_rate"`
}

type Inspect struct {
	Workers int `mapstructure:"workers"`
	// Kinds limits the event kinds listed by default, empty lists everything.
	Kinds []string `mapstructure:"kinds"`
}

type Config struct {
	General General `mapstructure:"general"`
	RCON    RCON    `mapstructure:"rcon"`
	Log     Log     `mapstructure:"log"`
	Inspect Inspect `mapstructure:"inspect"`
}

func (c Config) LogLevel() log.Level {
	return log.ParseLevel(c.Log.Level)
}

// decodeDuration parses duration strings (1s, 5m, etc.) into time.Duration fields.
func decodeDuration() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, target reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || target != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		value, _ := data.(string)

		duration, errDuration := time.ParseDuration(value)
		if errDuration != nil {
			return nil, errors.Join(errDuration, fmt.Errorf("%w: %s", ErrDecodeDuration, value))
		}

		return duration, nil
	}
}

func setDefaultConfigValues(v *viper.Viper) {
	if home, errHomeDir := homedir.Dir(); errHomeDir == nil {
		v.AddConfigPath(home)
	}

	v.AddConfigPath(".")
	v.SetConfigName(configName)
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaultConfig := map[string]any{
		"general.demo_path":        "~/.local/share/Steam/steamapps/common/Team Fortress 2/tf/demos",
		"general.replay_path":      "~/.local/share/Steam/steamapps/common/Team Fortress 2/tf/replay/client/replays",
		"general.tick_rate":        0.0,
		"general.cleanup_max_pct":  90.0,
		"rcon.address":             "127.0.0.1:27015",
		"rcon.password":            "",
		"rcon.timeout":             "5s",
		"rcon.commands_per_second": 10,
		"log.level":                "info",
		"log.file":                 "",
		"log.sentry_dsn":           "",
		"log.sentry_sample_rate":   1.0,
		"inspect.workers":          4,
		"inspect.kinds":            []string{},
	}

	for configKey, value := range defaultConfig {
		v.SetDefault(configKey, value)
	}
}

// Read loads the configuration. When configFile is empty the home and working directories are
// searched for demoinspect.yml and a missing file is not an error.
func Read(configFile string) (Config, error) {
	var (
		config Config
		v      = viper.New()
	)

	setDefaultConfigValues(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if errReadConfig := v.ReadInConfig(); errReadConfig != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(errReadConfig, &notFound) {
			return config, errors.Join(errReadConfig, ErrReadConfig)
		}
	}

	if errUnmarshal := v.Unmarshal(&config, viper.DecodeHook(mapstructure.DecodeHookFunc(decodeDuration()))); errUnmarshal != nil {
		return config, errors.Join(errUnmarshal, ErrFormatConfig)
	}

	for _, path := range []*string{&config.General.DemoPath, &config.General.ReplayPath, &config.Log.File} {
		expanded, errExpand := homedir.Expand(*path)
		if errExpand != nil {
			return config, errors.Join(errExpand, ErrFormatConfig)
		}

		*path = expanded
	}

	if config.General.CleanupMaxPct < 0 || config.General.CleanupMaxPct > 100 {
		return config, fmt.Errorf("%w: cleanup_max_pct must be between 0 and 100", ErrInvalidConfig)
	}

	if config.Inspect.Workers <= 0 {
		config.Inspect.Workers = 1
	}

	return config, nil
}
