package train

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("train: invalid config")

// Config holds the hyperparameters of a training run.
type Config struct {
	LearningRate float64 `yaml:"learning_rate"`
	Discount     float64 `yaml:"discount"`
	Epsilon      float64 `yaml:"epsilon"`

	Episodes        int `yaml:"episodes"`
	MaxEpisodeSteps int `yaml:"max_episode_steps"`

	// Seed drives start-state sampling and exploration.
	Seed uint64 `yaml:"seed"`

	// LogEvery logs progress after this many episodes. Zero disables it.
	LogEvery int `yaml:"log_every"`
}

func DefaultConfig() Config {
	return Config{
		LearningRate:    0.5,
		Discount:        0.9,
		Epsilon:         0.3,
		Episodes:        10000,
		MaxEpisodeSteps: 20,
		Seed:            1,
		LogEvery:        1000,
	}
}

func (c Config) Validate() error {
	switch {
	case c.LearningRate <= 0 || c.LearningRate > 1:
		return fmt.Errorf("%w: learning_rate %v not in (0, 1]", ErrInvalidConfig, c.LearningRate)
	case c.Discount < 0 || c.Discount > 1:
		return fmt.Errorf("%w: discount %v not in [0, 1]", ErrInvalidConfig, c.Discount)
	case c.Epsilon < 0 || c.Epsilon > 1:
		return fmt.Errorf("%w: epsilon %v not in [0, 1]", ErrInvalidConfig, c.Epsilon)
	case c.Episodes < 0:
		return fmt.Errorf("%w: episodes %d is negative", ErrInvalidConfig, c.Episodes)
	case c.MaxEpisodeSteps <= 0:
		return fmt.Errorf("%w: max_episode_steps must be positive", ErrInvalidConfig)
	case c.LogEvery < 0:
		return fmt.Errorf("%w: log_every %d is negative", ErrInvalidConfig, c.LogEvery)
	}
	return nil
}

// LoadConfig reads a YAML file over DefaultConfig, so omitted keys keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
