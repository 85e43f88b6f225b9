package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. TOPICSEG_SEGMENT_MAX_TOPICS.
const EnvPrefix = "TOPICSEG"

type Provider struct {
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Model    string `mapstructure:"model" yaml:"model"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	MaxChars int    `mapstructure:"max_chars" yaml:"max_chars"` // transcript cap, 0 for none
}
type LLM struct {
	Provider  string        `mapstructure:"provider" yaml:"provider"` // gemini | openai | anthropic
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	OpenAI    Provider      `mapstructure:"openai" yaml:"openai"`
	Gemini    Provider      `mapstructure:"gemini" yaml:"gemini"`
	Anthropic Provider      `mapstructure:"anthropic" yaml:"anthropic"`
}
type Segment struct {
	Strategy      string `mapstructure:"strategy" yaml:"strategy"` // statistical | remote-llm
	Fallback      bool   `mapstructure:"fallback" yaml:"fallback"`
	WordsPerTopic int    `mapstructure:"words_per_topic" yaml:"words_per_topic"`
	MinTopics     int    `mapstructure:"min_topics" yaml:"min_topics"`
	MaxTopics     int    `mapstructure:"max_topics" yaml:"max_topics"`
	MaxKeywords   int    `mapstructure:"max_keywords" yaml:"max_keywords"`
}
type Features struct {
	MaxFeatures int     `mapstructure:"max_features" yaml:"max_features"`
	MaxDocFreq  float64 `mapstructure:"max_doc_freq" yaml:"max_doc_freq"`
	MinDocFreq  int     `mapstructure:"min_doc_freq" yaml:"min_doc_freq"`
}
type Cluster struct {
	Restarts  int     `mapstructure:"restarts" yaml:"restarts"`
	MaxIter   int     `mapstructure:"max_iter" yaml:"max_iter"`
	Seed      int64   `mapstructure:"seed" yaml:"seed"`
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance"`
}
type Captions struct {
	Lang    string        `mapstructure:"lang" yaml:"lang"`
	Dir     string        `mapstructure:"dir" yaml:"dir"` // local .srt/.vtt/.json fallback
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}
type Root struct {
	Pipeline struct {
		Name      string `mapstructure:"name" yaml:"name"`
		Version   string `mapstructure:"version" yaml:"version"`
		LogLvl    string `mapstructure:"log_level" yaml:"log_level"`
		LogFormat string `mapstructure:"log_format" yaml:"log_format"` // text | json
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Segment  Segment  `mapstructure:"segment" yaml:"segment"`
	Features Features `mapstructure:"features" yaml:"features"`
	Cluster  Cluster  `mapstructure:"cluster" yaml:"cluster"`
	LLM      LLM      `mapstructure:"llm" yaml:"llm"`
	Captions Captions `mapstructure:"captions" yaml:"captions"`
	Server   struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`
	Paths struct {
		Outputs string `mapstructure:"outputs" yaml:"outputs"`
	} `mapstructure:"paths" yaml:"paths"`
}

var defaults = map[string]any{
	"pipeline.name":           "topicseg",
	"pipeline.version":        "0.1.0",
	"pipeline.log_level":      "info",
	"pipeline.log_format":     "text",
	"segment.strategy":        "statistical",
	"segment.fallback":        true,
	"segment.words_per_topic": 200,
	"segment.min_topics":      3,
	"segment.max_topics":      10,
	"segment.max_keywords":    3,
	"features.max_features":   100,
	"features.max_doc_freq":   0.9,
	"features.min_doc_freq":   1,
	"cluster.restarts":        10,
	"cluster.max_iter":        300,
	"cluster.seed":            42,
	"cluster.tolerance":       1e-4,
	"llm.provider":            "gemini",
	"llm.timeout":             "60s",
	"llm.openai.api_key":      "",
	"llm.openai.model":        "gpt-4",
	"llm.openai.base_url":     "",
	"llm.openai.max_chars":    4000,
	"llm.gemini.api_key":      "",
	"llm.gemini.model":        "gemini-2.5-flash",
	"llm.gemini.base_url":     "",
	"llm.gemini.max_chars":    0,
	"llm.anthropic.api_key":   "",
	"llm.anthropic.model":     "claude-3-5-sonnet-20241022",
	"llm.anthropic.base_url":  "",
	"llm.anthropic.max_chars": 4000,
	"captions.lang":           "en",
	"captions.dir":            "",
	"captions.base_url":       "",
	"captions.timeout":        "30s",
	"server.addr":             ":3000",
	"paths.outputs":           "",
}

// keys read from the provider's conventional variable when unset
var apiKeyEnv = map[string]string{
	"llm.openai.api_key":    "OPENAI_API_KEY",
	"llm.gemini.api_key":    "GEMINI_API_KEY",
	"llm.anthropic.api_key": "ANTHROPIC_API_KEY",
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration without reading files or env.
func Default() *Root {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

// Load reads path, or when empty the first of config/$CONFIG_ENV/config.yaml
// and config.yaml that exists, then applies TOPICSEG_* overrides. A missing
// implicit file leaves the defaults in place.
func Load(path string) (*Root, error) {
	v := newViper()

	if path == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		for _, p := range []string{filepath.Join("config", env, "config.yaml"), "config.yaml"} {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	for key, env := range apiKeyEnv {
		if v.GetString(key) == "" {
			if val := os.Getenv(env); val != "" {
				v.Set(key, val)
			}
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the segmenter cannot run with.
func (r *Root) Validate() error {
	var errs []error
	if r.Segment.MinTopics < 1 || r.Segment.MaxTopics < r.Segment.MinTopics {
		errs = append(errs, fmt.Errorf("segment: need 1 <= min_topics <= max_topics, got %d..%d", r.Segment.MinTopics, r.Segment.MaxTopics))
	}
	if r.Segment.MaxKeywords < 0 {
		errs = append(errs, fmt.Errorf("segment: max_keywords must not be negative"))
	}
	if r.Features.MaxDocFreq <= 0 || r.Features.MaxDocFreq > 1 {
		errs = append(errs, fmt.Errorf("features: max_doc_freq must be in (0, 1], got %v", r.Features.MaxDocFreq))
	}
	if r.Cluster.Restarts < 1 || r.Cluster.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("cluster: restarts and max_iter must be positive"))
	}
	return errors.Join(errs...)
}

// ActiveProvider returns the name and settings of llm.provider.
func (r *Root) ActiveProvider() (string, Provider) {
	name := strings.ToLower(r.LLM.Provider)
	switch name {
	case "openai":
		return name, r.LLM.OpenAI
	case "anthropic", "claude":
		return "anthropic", r.LLM.Anthropic
	}
	return "gemini", r.LLM.Gemini
}

// WriteTemplate writes the default configuration as YAML with API keys blank.
func WriteTemplate(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return err
	}
	return enc.Close()
}
