// Package config loads mockwbem configuration with Viper: defaults, an
// optional TOML/YAML file, and MOCKWBEM_-prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the mockwbem configuration.
type Config struct {
	Repository RepositoryConfig `mapstructure:"repository"`
	Log        LogConfig        `mapstructure:"log"`
}

// RepositoryConfig configures the object repository.
type RepositoryConfig struct {
	// DefaultNamespace is created on startup and used by CLI commands when
	// no namespace is given.
	DefaultNamespace string `mapstructure:"default_namespace"`

	// DisablePull makes every open/pull operation fail NotSupported.
	DisablePull bool `mapstructure:"disable_pull"`

	// ContextIdleTimeoutSeconds bounds how long an untouched enumeration
	// context stays valid. 0 uses the engine default; negative disables.
	ContextIdleTimeoutSeconds int `mapstructure:"context_idle_timeout_seconds"`

	// DefaultMaxObjectCount is the page size used when a caller passes zero.
	DefaultMaxObjectCount int `mapstructure:"default_max_object_count"`
}

// LogConfig configures logging output.
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

// ContextIdleTimeout converts the configured seconds to a duration.
func (rc RepositoryConfig) ContextIdleTimeout() time.Duration {
	return time.Duration(rc.ContextIdleTimeoutSeconds) * time.Second
}

// SetDefaults installs default values on a Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("repository.default_namespace", "root/cimv2")
	v.SetDefault("repository.disable_pull", false)
	v.SetDefault("repository.context_idle_timeout_seconds", 0)
	v.SetDefault("repository.default_max_object_count", 100)
	v.SetDefault("log.json", false)
}

// Load reads configuration from defaults and the environment.
func Load() (*Config, error) {
	return LoadWithViper(newViper())
}

// LoadFromFile reads configuration from a specific file path, layered over
// defaults and the environment.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals configuration from a prepared Viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MOCKWBEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}
