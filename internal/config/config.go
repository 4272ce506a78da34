// Package config loads the YAML configuration: an embedded default merged
// with an optional user file, then validated.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/passage-org/passage-complete/internal/cel"
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// Config is the merged configuration.
type Config struct {
	Endpoint   Endpoint          `yaml:"endpoint" json:"endpoint" toml:"endpoint" validate:"required"`
	Vocabulary Vocabulary        `yaml:"vocabulary" json:"vocabulary" toml:"vocabulary" validate:"required"`
	Ranking    Ranking           `yaml:"ranking" json:"ranking" toml:"ranking"`
	Namespaces map[string]string `yaml:"namespaces" json:"namespaces" toml:"namespaces" validate:"dive,keys,prefixname,endkeys,required"`
	LSP        LSP               `yaml:"lsp" json:"lsp" toml:"lsp"`
	Server     Server            `yaml:"server" json:"server" toml:"server"`
}

// Endpoint describes the raw endpoint and how to talk to it.
type Endpoint struct {
	URL          string            `yaml:"url" json:"url" toml:"url" validate:"required,url"`
	Headers      map[string]string `yaml:"headers" json:"headers,omitempty" toml:"headers,omitempty"`
	Budget       time.Duration     `yaml:"budget" json:"budget" toml:"budget" validate:"gte=0"`
	BudgetHeader string            `yaml:"budget_header" json:"budget_header" toml:"budget_header"`
	Timeout      time.Duration     `yaml:"timeout" json:"timeout" toml:"timeout" validate:"gte=0"`
	Rate         float64           `yaml:"rate" json:"rate" toml:"rate" validate:"gte=0"`
	Burst        int               `yaml:"burst" json:"burst" toml:"burst" validate:"gte=0"`
}

// Vocabulary names the variables the endpoint adds to every binding,
// without their '?' sigil, and the predicate joined for labels.
type Vocabulary struct {
	ProbabilityVariable string   `yaml:"probability_variable" json:"probability_variable" toml:"probability_variable" validate:"required,varname,ne=SUGGEST,ne=SUGGEST_LABEL"`
	LabelPredicate      string   `yaml:"label_predicate" json:"label_predicate" toml:"label_predicate"`
	ProvenanceVariables []string `yaml:"provenance_variables" json:"provenance_variables" toml:"provenance_variables" validate:"dive,varname"`
}

// Ranking configures the aggregation of results.
type Ranking struct {
	Language string `yaml:"language" json:"language" toml:"language" validate:"omitempty,bcp47_language_tag"`
	Filter   string `yaml:"filter" json:"filter,omitempty" toml:"filter,omitempty"`
	Limit    int    `yaml:"limit" json:"limit" toml:"limit" validate:"gte=0"`
}

// LSP configures the language server front end.
type LSP struct {
	MetricsAddress string `yaml:"metrics_address" json:"metrics_address,omitempty" toml:"metrics_address,omitempty" validate:"omitempty,hostname_port"`
}

// Server configures the HTTP completion API.
type Server struct {
	Address string `yaml:"address" json:"address" toml:"address" validate:"required,hostname_port"`
}

var (
	varName    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	prefixName = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_.\-]*)?:?$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("varname", func(fl validator.FieldLevel) bool {
			return varName.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("prefixname", func(fl validator.FieldLevel) bool {
			return prefixName.MatchString(fl.Field().String())
		})
	})
	return validate
}

// DefaultYAML returns a copy of the embedded default configuration.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	return Parse(nil)
}

// Parse merges data over the embedded default and validates the result.
// Maps are merged key by key; every other value in data replaces the
// default.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode default config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the configuration at path. An empty path falls back to
// DefaultPath, and a missing default file yields the embedded default.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && os.IsNotExist(err):
		return Default()
	default:
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/passage-complete/config.yaml, using
// the platform config directory when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, settings.CliBinaryName, "config.yaml")
}

// Validate checks field constraints and compiles the ranking filter.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.WithHintf(
				errors.Newf("invalid config: %s fails %q", fe.Namespace(), fe.Tag()),
				"%d field(s) failed validation", len(verrs))
		}
		return errors.Wrap(err, "invalid config")
	}
	if c.Ranking.Filter != "" {
		if _, err := cel.Compile(c.Ranking.Filter); err != nil {
			return errors.Wrap(err, "invalid config: ranking.filter")
		}
	}
	return nil
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	return out, errors.Wrap(err, "encode config")
}
