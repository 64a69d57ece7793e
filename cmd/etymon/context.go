package main

import (
	"strings"
	"sync"

	"etymon/internal/config"
)

// commandContext loads the configuration once per invocation and shares it
// across subcommands.
type commandContext struct {
	configFlag *string

	once    sync.Once
	loaded  *config.Config
	loadErr error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() { c.loaded, c.loadErr = c.load() })
	return c.loaded, c.loadErr
}

func (c *commandContext) load() (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}
