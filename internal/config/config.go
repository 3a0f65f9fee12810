// Package config loads the bot configuration from an optional YAML file,
// DISCTRANSLA_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hororrklama-coder/DiscTransla/internal/backend"
	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
	"github.com/hororrklama-coder/DiscTransla/internal/detect"
	"github.com/hororrklama-coder/DiscTransla/internal/translator"
)

// EnvPrefix prefixes every environment variable, e.g. DISCTRANSLA_LOG_LEVEL.
const EnvPrefix = "DISCTRANSLA"

// Preference backings.
const (
	PrefsFile   = "file"
	PrefsSQLite = "sqlite"
	PrefsS3     = "s3"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"addr":         "server.addr",
	"engine":       "detect.engine",
	"prefs":        "prefs.path",
	"max-length":   "translate.max_length",
	"pivot":        "language.pivot",
	"public-key":   "discord.public_key",
	"app-id":       "discord.application_id",
	"token":        "discord.token",
	"prefs-store":  "prefs.backend",
	"low-accuracy": "detect.low_accuracy",
}

// Discord holds application credentials.
type Discord struct {
	Token         string
	ApplicationID string
	PublicKey     string
}

// Prefs selects and locates the preference backing.
type Prefs struct {
	Backend string
	Path    string
	Bucket  string
	Key     string
}

// Config is the resolved configuration.
type Config struct {
	Discord Discord

	DefaultLanguage string
	PivotLanguage   string
	Excluded        []string
	MaxLength       int
	DetectEngine    string

	// DetectLowAccuracy trades short-text accuracy for far smaller lingua models.
	DetectLowAccuracy bool

	Primary      backend.MyMemoryConfig
	PrimaryRPS   float64
	Secondary    backend.LibreTranslateConfig
	SecondaryRPS float64
	Breaker      backend.BreakerConfig

	Prefs Prefs

	ServerAddr string
	LogLevel   string
	ConfigFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("language.default", "en")
	v.SetDefault("language.pivot", "en")
	v.SetDefault("language.excluded", []string{"he"})
	v.SetDefault("translate.max_length", 400)
	v.SetDefault("detect.engine", "lingua")
	v.SetDefault("detect.low_accuracy", false)

	v.SetDefault("backends.primary.url", backend.DefaultMyMemoryURL)
	v.SetDefault("backends.primary.timeout", 15*time.Second)
	v.SetDefault("backends.primary.rps", 0)
	v.SetDefault("backends.secondary.url", backend.DefaultLibreTranslateURL)
	v.SetDefault("backends.secondary.timeout", 10*time.Second)
	v.SetDefault("backends.secondary.rps", 0)
	v.SetDefault("backends.breaker.failures", 5)
	v.SetDefault("backends.breaker.cooldown", 30*time.Second)

	v.SetDefault("prefs.backend", PrefsFile)
	v.SetDefault("prefs.path", "user_languages.json")
	v.SetDefault("prefs.key", "user_languages.json")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
}

// Load resolves the configuration. cfgFile may be empty, in which case
// disctransla.yaml is looked up in the working and home directories and
// its absence is not an error. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bot token also comes from the conventional variable
	if err := v.BindEnv("discord.token", EnvPrefix+"_DISCORD_TOKEN", "DISCORD_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token env: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("disctransla")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Discord: Discord{
			Token:         v.GetString("discord.token"),
			ApplicationID: v.GetString("discord.application_id"),
			PublicKey:     v.GetString("discord.public_key"),
		},
		DefaultLanguage:   strings.ToLower(v.GetString("language.default")),
		PivotLanguage:     strings.ToLower(v.GetString("language.pivot")),
		Excluded:          stringList(v, "language.excluded"),
		MaxLength:         v.GetInt("translate.max_length"),
		DetectEngine:      v.GetString("detect.engine"),
		DetectLowAccuracy: v.GetBool("detect.low_accuracy"),
		Primary: backend.MyMemoryConfig{
			URL:     v.GetString("backends.primary.url"),
			Email:   v.GetString("backends.primary.email"),
			Timeout: v.GetDuration("backends.primary.timeout"),
		},
		PrimaryRPS: v.GetFloat64("backends.primary.rps"),
		Secondary: backend.LibreTranslateConfig{
			URL:     v.GetString("backends.secondary.url"),
			APIKey:  v.GetString("backends.secondary.api_key"),
			Timeout: v.GetDuration("backends.secondary.timeout"),
		},
		SecondaryRPS: v.GetFloat64("backends.secondary.rps"),
		Breaker: backend.BreakerConfig{
			Failures: v.GetUint32("backends.breaker.failures"),
			Cooldown: v.GetDuration("backends.breaker.cooldown"),
		},
		Prefs: Prefs{
			Backend: strings.ToLower(v.GetString("prefs.backend")),
			Path:    v.GetString("prefs.path"),
			Bucket:  v.GetString("prefs.bucket"),
			Key:     v.GetString("prefs.key"),
		},
		ServerAddr: v.GetString("server.addr"),
		LogLevel:   v.GetString("log.level"),
		ConfigFile: v.ConfigFileUsed(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Prefs.Backend {
	case PrefsFile, PrefsSQLite:
		if c.Prefs.Path == "" {
			return fmt.Errorf("prefs.path is required for the %s backend", c.Prefs.Backend)
		}
	case PrefsS3:
		if c.Prefs.Bucket == "" {
			return fmt.Errorf("prefs.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown prefs.backend %q (want file, sqlite or s3)", c.Prefs.Backend)
	}

	if c.MaxLength <= 0 {
		return fmt.Errorf("translate.max_length must be positive, got %d", c.MaxLength)
	}
	if c.DefaultLanguage == "" {
		return fmt.Errorf("language.default is required")
	}
	return nil
}

// Translator returns the orchestration settings.
func (c *Config) Translator() translator.Config {
	return translator.Config{
		MaxLength: c.MaxLength,
		Pivot:     c.PivotLanguage,
		Excluded:  c.Excluded,
	}
}

// Detection returns the detector settings: results are limited to the
// catalog and the excluded languages, which must stay detectable to be refused.
func (c *Config) Detection() detect.Options {
	var codes []string
	for _, e := range catalog.New().Entries() {
		codes = append(codes, e.Code)
	}
	return detect.Options{
		Languages:   append(codes, c.Excluded...),
		LowAccuracy: c.DetectLowAccuracy,
	}
}

// stringList reads a list that may also be given as "a,b" in the environment.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
