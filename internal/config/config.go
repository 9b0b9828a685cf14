// Package config loads plugin settings from defaults, an optional config file
// and VISION_PLUGIN_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the plugin reads.
const EnvPrefix = "VISION_PLUGIN"

// FileEnvVar names the environment variable holding an optional config file path.
const FileEnvVar = EnvPrefix + "_CONFIG"

// Config stores all configuration of the plugin.
// The values are read by viper from a config file or environment variables.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`  // zerolog level name
	LogFile   string `mapstructure:"log_file"`   // empty logs to stderr
	LogPretty bool   `mapstructure:"log_pretty"` // human-readable console output

	TessdataPrefix string `mapstructure:"tessdata_prefix"` // Tesseract language data directory
	FaceCascade    string `mapstructure:"face_cascade"`    // Haar cascade XML used by the gocv build

	// SerializeProvider guards every capability provider call with a mutex.
	SerializeProvider bool `mapstructure:"serialize_provider"`

	// DebugAllocator swaps the C string allocator for one that poisons and
	// tracks released strings.
	DebugAllocator bool `mapstructure:"debug_allocator"`

	ImageCacheSize int `mapstructure:"image_cache_size"` // 0 disables the decoded image cache
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		LogLevel:          "warn",
		SerializeProvider: true,
		ImageCacheSize:    16,
	}
}

// Load reads configuration. path may be empty, in which case only defaults and
// environment variables apply.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_pretty", def.LogPretty)
	v.SetDefault("tessdata_prefix", def.TessdataPrefix)
	v.SetDefault("face_cascade", def.FaceCascade)
	v.SetDefault("serialize_provider", def.SerializeProvider)
	v.SetDefault("debug_allocator", def.DebugAllocator)
	v.SetDefault("image_cache_size", def.ImageCacheSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return def, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return def, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ImageCacheSize < 0 {
		cfg.ImageCacheSize = 0
	}
	return cfg, nil
}

// FromEnvironment loads configuration using the file named by FileEnvVar, if any.
func FromEnvironment() (Config, error) {
	return Load(os.Getenv(FileEnvVar))
}
