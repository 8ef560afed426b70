package main

import (
	"fmt"
	"os"

	"github.com/ahmedtd/backprop/toolbox"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds everything the train command needs.  It can be loaded from a
// YAML file; flags set on the command line take precedence.
type Config struct {
	Epochs           int                 `yaml:"epochs"`
	LearningRate     float32             `yaml:"learning_rate"`
	Seed             int64               `yaml:"seed"`
	InitStdDev       float32             `yaml:"init_stddev"`
	ReportEvery      int                 `yaml:"report_every"`
	TextbookBackprop bool                `yaml:"textbook_backprop"`
	DataFile         string              `yaml:"data_file"`
	Layers           []toolbox.LayerSpec `yaml:"layers"`
}

const defaultTopology = "2:4:sigmoid,4:3:sigmoid,3:1:sigmoid"

func DefaultConfig() Config {
	layers, err := toolbox.ParseTopology(defaultTopology)
	if err != nil {
		panic(err)
	}
	return Config{
		Epochs:       10000,
		LearningRate: 0.5,
		Seed:         12345,
		InitStdDev:   1.0,
		ReportEvery:  100,
		Layers:       layers,
	}
}

// LoadConfig reads a YAML file on top of base.  Keys absent from the file keep
// their base values.
func LoadConfig(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("while opening config file: %w", err)
	}
	defer f.Close()

	cfg := base
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("while decoding config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Epochs < 0 {
		return errors.Wrapf(toolbox.ErrInvalidConfig, "epochs must be >= 0, got %d", c.Epochs)
	}
	if !(c.LearningRate > 0) {
		return errors.Wrapf(toolbox.ErrInvalidConfig, "learning rate must be > 0, got %v", c.LearningRate)
	}
	if !(c.InitStdDev > 0) {
		return errors.Wrapf(toolbox.ErrInvalidConfig, "init stddev must be > 0, got %v", c.InitStdDev)
	}
	if c.ReportEvery < 0 {
		return errors.Wrapf(toolbox.ErrInvalidConfig, "report interval must be >= 0, got %d", c.ReportEvery)
	}
	return toolbox.ValidateTopology(c.Layers)
}

func (c Config) Propagation() toolbox.PropagationOrder {
	if c.TextbookBackprop {
		return toolbox.PropagateOriginal
	}
	return toolbox.PropagateUpdated
}
