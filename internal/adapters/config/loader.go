// Package config provides the configuration loader for press.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using an optional YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads press.yaml from cwd, merges it over the defaults and validates the result.
// A missing file yields the defaults rooted at cwd.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	configPath := filepath.Join(cwd, domain.ConfigFileName)

	var file File
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	cfg, err := l.build(configPath, &file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Registry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) build(configPath string, file *File) (*domain.Config, error) {
	specs := domain.DefaultSpecs()
	for key, dto := range file.Paths {
		class, err := domain.ParseAssetClass(key)
		if err != nil {
			return nil, err
		}
		if dto == (PathDTO{}) {
			l.Logger.Warn(fmt.Sprintf("paths.%s in %s sets nothing and has no effect", key, domain.ConfigFileName))
			continue
		}
		specs[class] = mergePath(specs[class], dto)
	}

	dist := domain.DefaultDistDir
	if file.Dist != "" {
		dist = file.Dist
	}

	opts, err := mergeOptions(domain.DefaultOptions(), file)
	if err != nil {
		return nil, err
	}

	return &domain.Config{
		Registry: domain.NewRegistry(resolveRoot(configPath, file.Root), dist, specs),
		Options:  opts,
	}, nil
}

// mergePath overrides the fields set in dto. A new source without a watch glob
// watches exactly the source.
func mergePath(spec domain.PathSpec, dto PathDTO) domain.PathSpec {
	if dto.Src != "" {
		spec.Source = dto.Src
		spec.Watch = ""
	}
	if dto.Watch != "" {
		spec.Watch = dto.Watch
	}
	if dto.Dest != "" {
		spec.Dest = dto.Dest
	}
	return spec
}

func mergeOptions(opts domain.Options, file *File) (domain.Options, error) {
	if s := file.Server; s != nil {
		if s.Host != "" {
			opts.Host = s.Host
		}
		if s.Port != 0 {
			opts.Port = s.Port
		}
	}
	if c := file.Critical; c != nil {
		if c.Width != 0 {
			opts.Critical.Width = c.Width
		}
		if c.Height != 0 {
			opts.Critical.Height = c.Height
		}
		if c.Stylesheet != "" {
			opts.Critical.Stylesheet = c.Stylesheet
		}
		if c.Browser != nil {
			opts.Critical.Browser = *c.Browser
		}
	}
	if file.CacheBust != "" {
		opts.CacheBust = domain.BustStrategy(file.CacheBust)
	}
	if file.Debounce != "" {
		d, err := time.ParseDuration(file.Debounce)
		if err != nil {
			return opts, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalidOption.Error()), "debounce", file.Debounce)
		}
		opts.Debounce = d
	}
	if len(file.Targets) > 0 {
		opts.Targets = append([]string(nil), file.Targets...)
	}
	return opts, nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML decodes the YAML file at configPath into target,
// rejecting unknown keys. A missing or empty file leaves target untouched.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is built from the working directory
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}
