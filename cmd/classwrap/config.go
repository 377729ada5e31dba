package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/classwrap/pkg/classnames"
	"github.com/gnana997/classwrap/pkg/workspace"
)

const defaultConfigPath = ".classwrap/config.yaml"

// ProjectConfig holds the contents of .classwrap/config.yaml.
type ProjectConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// Options is the plugin options object, e.g.
	//
	//	options:
	//	  attributeNames: [className, overlayClassName]
	//	  nameHint: cx
	Options map[string]any `yaml:"options"`
}

// loadProjectConfig reads the config at path, or at defaultConfigPath when
// path is empty. A missing default file is not an error and yields nil; a
// missing explicit file is.
func loadProjectConfig(path string) (*ProjectConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// scanOptions returns the file selection: config patterns where set, the
// defaults otherwise.
func (c *ProjectConfig) scanOptions() workspace.ScanOptions {
	opts := workspace.DefaultScanOptions()
	if c == nil {
		return opts
	}
	if len(c.Include) > 0 {
		opts.Include = c.Include
	}
	if len(c.Exclude) > 0 {
		opts.Exclude = c.Exclude
	}
	return opts
}

// options returns a copy of the config's plugin options.
func (c *ProjectConfig) options() classnames.Options {
	opts := classnames.Options{}
	if c == nil {
		return opts
	}
	for k, v := range c.Options {
		opts[k] = v
	}
	return opts
}
