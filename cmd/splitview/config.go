// ABOUTME: Serve configuration: flag defaults drawn from SPLITVIEW_* environment variables, then validated.
// ABOUTME: Also builds the zap logger, production JSON by default and development console with --verbose.
package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/2389-research/splitview/content"
	"github.com/2389-research/splitview/markdown"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "SPLITVIEW_"

// serveConfig holds everything the serve command needs.
type serveConfig struct {
	Addr            string `validate:"required,hostname_port"`
	ContentPath     string `validate:"required"`
	Title           string `validate:"required"`
	Author          string
	Modules         []string      `validate:"min=1,dive,module"`
	RendererLatency time.Duration `validate:"gte=0"`
	RendererFail    bool
	MaxInstances    int           `validate:"gte=1"`
	InstanceTTL     time.Duration `validate:"gte=1s"`
	Verbose         bool
}

// defaultConfig returns the built-in defaults overlaid with any SPLITVIEW_* variables.
func defaultConfig() (serveConfig, error) {
	cfg := serveConfig{
		Addr:         "127.0.0.1:3000",
		ContentPath:  "content/article.md",
		Title:        content.DefaultTitle,
		Author:       content.DefaultAuthor,
		Modules:      []string{markdown.ModuleGFM, markdown.ModuleEmoji},
		MaxInstances: 500,
		InstanceTTL:  2 * time.Hour,
	}

	var err error
	cfg.Addr = envString("ADDR", cfg.Addr)
	cfg.ContentPath = envString("CONTENT", cfg.ContentPath)
	cfg.Title = envString("TITLE", cfg.Title)
	cfg.Author = envString("AUTHOR", cfg.Author)
	if v, ok := os.LookupEnv(envPrefix + "MODULES"); ok {
		cfg.Modules = splitList(v)
	}
	if cfg.RendererLatency, err = envDuration("RENDERER_LATENCY", cfg.RendererLatency); err != nil {
		return cfg, err
	}
	if cfg.RendererFail, err = envBool("RENDERER_FAIL", cfg.RendererFail); err != nil {
		return cfg, err
	}
	if cfg.MaxInstances, err = envInt("MAX_INSTANCES", cfg.MaxInstances); err != nil {
		return cfg, err
	}
	if cfg.InstanceTTL, err = envDuration("INSTANCE_TTL", cfg.InstanceTTL); err != nil {
		return cfg, err
	}
	if cfg.Verbose, err = envBool("VERBOSE", cfg.Verbose); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return b, nil
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("module", func(fl validator.FieldLevel) bool {
		return slices.Contains(markdown.KnownModules(), fl.Field().String())
	})
	return v
}

// validate reports every invalid field at once.
func (c serveConfig) validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// cleanupInterval is how often the registry sweeps for idle instances.
func (c serveConfig) cleanupInterval() time.Duration {
	interval := c.InstanceTTL / 4
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// newLogger builds a production JSON logger, or a development console logger when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
