package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	MapRuleConfig struct {
		Pattern     string `yaml:"pattern" validate:"required"`
		Replacement string `yaml:"replacement"`
	}

	HTTPConfig struct {
		Enable        bool          `yaml:"enable"`
		Timeout       time.Duration `yaml:"timeout" validate:"gte=0"`
		MaxSize       int64         `yaml:"max_size" validate:"gte=0"`
		UserAgent     string        `yaml:"user_agent"`
		Authorization SecretString  `yaml:"authorization,omitempty"`
	}

	SpiderConfig struct {
		Cache           bool            `yaml:"cache"`
		MaxImports      int             `yaml:"max_imports" validate:"min=1,max=1000"`
		Ignore          []string        `yaml:"ignore" validate:"dive,required"`
		Map             []MapRuleConfig `yaml:"map" validate:"dive"`
		Root            string          `yaml:"root,omitempty" validate:"omitempty,dirpath"`
		DefaultEncoding string          `yaml:"default_encoding,omitempty"`
		HTTP            HTTPConfig      `yaml:"http"`
	}

	OutputConfig struct {
		Format       OutputFmt `yaml:"format" validate:"gte=0"`
		Indent       int       `yaml:"indent" validate:"min=0,max=8"`
		Summary      bool      `yaml:"summary"`
		CheckFiles   bool      `yaml:"check_files"`
		NameTemplate string    `yaml:"name_template"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Spider    SpiderConfig   `yaml:"spider"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "name_template"
	MapReplacementFieldName     TemplateFieldName = "replacement"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(MapReplacementFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
