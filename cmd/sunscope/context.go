package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/phanxgames/sunscope"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *sunscope.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{configFlag: configFlag, verbose: verbose}
}

func (c *commandContext) ensureConfig() (*sunscope.Config, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			c.config, c.configErr = sunscope.SampleSite()
			return
		}
		c.config, c.configErr = sunscope.LoadConfig(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if c.verbose != nil && *c.verbose {
		level = slog.LevelDebug
	}
	sunscope.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// resolveDate parses a YYYY-MM-DD flag in the configured timezone. Empty
// means today.
func resolveDate(cfg *sunscope.Config, value string) (time.Time, error) {
	loc, err := cfg.TimeLocation()
	if err != nil {
		return time.Time{}, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	d, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", value, err)
	}
	return d, nil
}
