package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// naturally onto the flag namespace.
type FileConfig struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
	PDFDir string `yaml:"pdfDir" json:"pdfDir"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Concurrency int     `yaml:"concurrency" json:"concurrency"`
	Tolerance   float64 `yaml:"tolerance" json:"tolerance"`

	Region struct {
		TOCRowMaxLen int `yaml:"tocRowMaxLen" json:"tocRowMaxLen"`
		LabelMaxLen  int `yaml:"labelMaxLen" json:"labelMaxLen"`
	} `yaml:"region" json:"region"`

	Stages struct {
		Metadata bool `yaml:"metadata" json:"metadata"`
		Describe bool `yaml:"describe" json:"describe"`
	} `yaml:"stages" json:"stages"`

	Force   bool `yaml:"force" json:"force"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := sonic.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := sonic.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays file-config values into cfg for fields that are
// still unset. Flags should already have been parsed; this lets the file
// supply defaults while explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.InputDir == "" && fc.Input != "" {
		cfg.InputDir = fc.Input
	}
	if cfg.OutputDir == "" && fc.Output != "" {
		cfg.OutputDir = fc.Output
	}
	if cfg.PDFDir == "" && fc.PDFDir != "" {
		cfg.PDFDir = fc.PDFDir
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.Concurrency == 0 && fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}
	if cfg.MatchTolerance == 0 && fc.Tolerance > 0 {
		cfg.MatchTolerance = fc.Tolerance
	}
	if cfg.TOCRowMaxLen == 0 && fc.Region.TOCRowMaxLen > 0 {
		cfg.TOCRowMaxLen = fc.Region.TOCRowMaxLen
	}
	if cfg.LabelMaxLen == 0 && fc.Region.LabelMaxLen > 0 {
		cfg.LabelMaxLen = fc.Region.LabelMaxLen
	}

	if !cfg.ExtractMetadata && fc.Stages.Metadata {
		cfg.ExtractMetadata = true
	}
	if !cfg.DescribeImages && fc.Stages.Describe {
		cfg.DescribeImages = true
	}
	if !cfg.Force && fc.Force {
		cfg.Force = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputDir) == "" {
		return errors.New("config: input directory is required")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("config: output directory is required")
	}
	if cfg.Concurrency < 0 {
		return errors.New("config: negative concurrency is not allowed")
	}
	if cfg.MatchTolerance < 0 {
		return errors.New("config: negative tolerance is not allowed")
	}
	if cfg.needsLLM() && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required for model-backed stages (or set LLM_MODEL)")
	}
	return nil
}
