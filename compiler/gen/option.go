package gen

import (
	"errors"
	"go/token"
	"runtime"
	"slices"

	"github.com/syssam/metamodel/diagnostics"
)

// DefaultHeader is written at the top of every generated file.
const DefaultHeader = "Code generated by metamodel. DO NOT EDIT."

// Config holds the code generation settings.
type Config struct {
	// Header is the comment at the top of each generated file.
	Header string
	// Package is the name of the generated package.
	Package string
	// Target is the output directory.
	Target string
	// Workers bounds the number of files rendered concurrently.
	Workers int
	// Features are the enabled feature-flags.
	Features []Feature
	// Logger receives the CodeGenerated event.
	Logger *diagnostics.Logger
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the generated package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		if !token.IsIdentifier(pkg) {
			return NewConfigError("Package", pkg, "package must be a Go identifier")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithFeatures enables the named features.
func WithFeatures(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			f, ok := FeatureByName(name)
			if !ok {
				return NewConfigError("Features", name, "unknown feature")
			}
			if !c.FeatureEnabled(name) {
				c.Features = append(c.Features, f)
			}
		}
		return nil
	}
}

// WithoutFeatures disables the named features.
func WithoutFeatures(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			if _, ok := FeatureByName(name); !ok {
				return NewConfigError("Features", name, "unknown feature")
			}
			c.Features = slices.DeleteFunc(c.Features, func(f Feature) bool { return f.Name == name })
		}
		return nil
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *diagnostics.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with defaults and the given options.
// A target directory is required.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:   DefaultHeader,
		Package:  "entity",
		Workers:  runtime.GOMAXPROCS(0),
		Features: defaultFeatures(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if c.Target == "" {
		return nil, NewConfigError("Target", nil, "missing target directory in config")
	}
	if c.Logger == nil {
		c.Logger = diagnostics.NewNop()
	}
	return c, nil
}
