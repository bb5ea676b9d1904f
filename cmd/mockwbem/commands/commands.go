// Package commands holds the mockwbem CLI subcommands.
package commands

import (
	"github.com/cimworks/mockwbem/config"
	"github.com/cimworks/mockwbem/repo"
)

var cfg *config.Config

func init() {
	loaded, err := config.Load()
	if err != nil {
		loaded = &config.Config{}
	}
	cfg = loaded
}

// SetConfig installs the loaded configuration for the subcommands.
func SetConfig(c *config.Config) {
	if c != nil {
		cfg = c
	}
}

// newRepository builds a repository from the active configuration.
func newRepository() *repo.Repository {
	return repo.New(repo.Options{
		DisablePull:           cfg.Repository.DisablePull,
		ContextIdleTimeout:    cfg.Repository.ContextIdleTimeout(),
		DefaultMaxObjectCount: cfg.Repository.DefaultMaxObjectCount,
	})
}
