// Package config loads rak settings from defaults, an optional YAML file and
// RAK_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/metcalfc/rak/internal/state"
	"github.com/metcalfc/rak/internal/translate"
)

// EnvPrefix prefixes every environment variable: storage.backend is read
// from RAK_STORAGE_BACKEND.
const EnvPrefix = "RAK"

type (
	Config struct {
		App       App       `mapstructure:"app"`
		Log       Log       `mapstructure:"log"`
		Storage   Storage   `mapstructure:"storage"`
		Library   Library   `mapstructure:"library"`
		Translate Translate `mapstructure:"translate"`

		// File is the config file that was read, empty when none was.
		File string `mapstructure:"-"`
	}

	App struct {
		Environment string `mapstructure:"environment" validate:"oneof=development production"`
	}
	Log struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
		Format string `mapstructure:"format" validate:"omitempty,oneof=pretty json"`
		File   string `mapstructure:"file"` // used when the terminal belongs to the UI
	}
	Storage struct {
		Backend string `mapstructure:"backend" validate:"oneof=file badger sqlite memory"`
		Dir     string `mapstructure:"dir" validate:"required_unless=Backend memory"`
		Key     string `mapstructure:"key" validate:"required"`
	}
	Library struct {
		Dir string `mapstructure:"dir" validate:"required"` // imported copies
	}
	Translate struct {
		Endpoint string        `mapstructure:"endpoint" validate:"required,url"`
		Target   string        `mapstructure:"target" validate:"required"`
		Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
		Rate     float64       `mapstructure:"rate" validate:"gte=0"`
	}
)

// DefaultFile returns $XDG_CONFIG_HOME/rak/config.yaml, falling back to
// ~/.config/rak/config.yaml.
func DefaultFile() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "rak", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rak", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	stateDir := state.Dir()
	v.SetDefault("app.environment", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("log.file", filepath.Join(stateDir, "rak.log"))
	v.SetDefault("storage.backend", state.KindFile)
	v.SetDefault("storage.dir", stateDir)
	v.SetDefault("storage.key", "book-reader-storage")
	v.SetDefault("library.dir", filepath.Join(stateDir, "books"))
	v.SetDefault("translate.endpoint", translate.DefaultEndpoint)
	v.SetDefault("translate.target", translate.DefaultTarget)
	v.SetDefault("translate.timeout", 15*time.Second)
	v.SetDefault("translate.rate", 1.0)
}

// Load reads the configuration. An explicit path must exist; with no path
// the default file is read only if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		if def := DefaultFile(); def != "" {
			if _, err := os.Stat(def); err == nil {
				file = def
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", strings.ToLower(fe.Namespace()), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("invalid config: %w", err)
}
