package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/freqmask/freqmask"
	"github.com/ZanzyTHEbar/freqmask/freqmask/collate"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Masking MaskingConfig `mapstructure:"masking"`
	Corpus  CorpusConfig  `mapstructure:"corpus"`
	Store   StoreConfig   `mapstructure:"store"`
	Model   ModelConfig   `mapstructure:"model"`
}

// MaskingConfig stores the masking policy for a run.
type MaskingConfig struct {
	BaseProbability  float64 `mapstructure:"baseProbability"`
	RareThreshold    uint64  `mapstructure:"rareThreshold"`
	MaxSeqLen        int     `mapstructure:"maxSeqLen"`
	ClampProbability bool    `mapstructure:"clampProbability"`
	KeepSpecial      bool    `mapstructure:"keepSpecial"`
	Seed             int64   `mapstructure:"seed"`
}

// CorpusConfig stores corpus and tokenizer inputs.
type CorpusConfig struct {
	VocabPath  string `mapstructure:"vocabPath"`
	MaxWorkers int    `mapstructure:"maxWorkers"`
}

// StoreConfig stores frequency table persistence details.
type StoreConfig struct {
	DSN  string `mapstructure:"dsn"`
	Type string `mapstructure:"type"`
}

// ModelConfig stores the loss scorer selection.
type ModelConfig struct {
	Provider  string `mapstructure:"provider"`
	ModelPath string `mapstructure:"modelPath"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("masking.baseProbability", 0.15)
	viper.SetDefault("masking.rareThreshold", 5)
	viper.SetDefault("masking.maxSeqLen", 512)
	viper.SetDefault("masking.clampProbability", true)
	viper.SetDefault("masking.keepSpecial", false)
	viper.SetDefault("masking.seed", 0)
	viper.SetDefault("corpus.maxWorkers", 0)
	viper.SetDefault("store.dsn", internal.DefaultStoreDSN)
	viper.SetDefault("store.type", internal.DefaultStoreType)
	viper.SetDefault("model.provider", "dev")

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. masking.baseProbability becomes MASKING_BASEPROBABILITY

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

// ToMasking converts the loaded masking section into the collator's
// immutable policy record.
func (c *Config) ToMasking() collate.MaskingConfig {
	return collate.MaskingConfig{
		BaseProbability:  c.Masking.BaseProbability,
		RareThreshold:    c.Masking.RareThreshold,
		MaxSeqLen:        c.Masking.MaxSeqLen,
		ClampProbability: c.Masking.ClampProbability,
		KeepSpecial:      c.Masking.KeepSpecial,
	}
}

// MaskingOptions returns collator options derived from the loaded
// config. A zero seed keeps the collator's time-based default source.
func (c *Config) MaskingOptions() []collate.Option {
	if c.Masking.Seed == 0 {
		return nil
	}
	return []collate.Option{collate.WithSeed(c.Masking.Seed)}
}
