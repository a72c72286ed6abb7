// Package config loads service configuration from a YAML file with
// sensible defaults for local development.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"chargecast/internal/llm"
	"chargecast/internal/shap"
)

// Config is the root configuration for the worker and CLI.
type Config struct {
	// ArtifactPath points at the serialized model artifact. Empty means the
	// built-in demo artifact.
	ArtifactPath string `yaml:"artifact_path"`

	Explain ExplainConfig `yaml:"explain"`
	LLM     llm.Config    `yaml:"llm"`
	Worker  WorkerConfig  `yaml:"worker"`
}

// ExplainConfig tunes the attribution stage.
type ExplainConfig struct {
	// TopK caps how many feature contributions are reported.
	TopK int `yaml:"top_k"`
}

// WorkerConfig holds Temporal connection settings.
type WorkerConfig struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Explain: ExplainConfig{TopK: shap.DefaultTopK},
		LLM:     llm.DefaultConfig(),
		Worker: WorkerConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "chargecast-estimate",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. Unknown keys are
// rejected so typos surface at startup rather than as silently ignored
// settings.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := unmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func unmarshalStrict(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	if c.Explain.TopK <= 0 {
		c.Explain.TopK = shap.DefaultTopK
	}
	if c.Worker.HostPort == "" {
		c.Worker.HostPort = "localhost:7233"
	}
	if c.Worker.Namespace == "" {
		c.Worker.Namespace = "default"
	}
	if c.Worker.TaskQueue == "" {
		c.Worker.TaskQueue = "chargecast-estimate"
	}
}
