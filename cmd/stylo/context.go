package main

import (
	"context"
	"strings"
	"sync"

	"github.com/cognicore/stylo/pkg/stylo"
	"github.com/cognicore/stylo/pkg/stylo/config"
	"github.com/cognicore/stylo/pkg/stylo/logger"
)

type commandContext struct {
	configFlag string
	storeFlag  string
	pathFlag   string

	engineOnce sync.Once
	engine     *stylo.Engine
	engineErr  error
	closed     bool
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// ensureEngine loads the configuration, applies command-line overrides and
// opens the store once per invocation.
func (c *commandContext) ensureEngine(ctx context.Context) (*stylo.Engine, error) {
	c.engineOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.engineErr = err
			return
		}
		if v := strings.TrimSpace(c.storeFlag); v != "" {
			cfg.Store.Driver = v
		}
		if v := strings.TrimSpace(c.pathFlag); v != "" {
			cfg.Store.Path = v
		}

		log := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
		comp, err := config.Build(ctx, cfg, log)
		if err != nil {
			c.engineErr = err
			return
		}
		c.engine = stylo.New(stylo.Options{
			Store:      comp.Store,
			Pipeline:   comp.Pipeline,
			Classifier: comp.Classifier,
			Logger:     log.With("component", "stylo"),
		})
	})
	return c.engine, c.engineErr
}

// close releases the store. It is safe to call more than once.
func (c *commandContext) close() error {
	if c.engine == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.engine.Close()
}
