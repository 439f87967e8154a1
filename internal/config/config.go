package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/sheetran/internal/completion"
	"github.com/valpere/sheetran/internal/dispatcher"
	"github.com/valpere/sheetran/internal/queue"
)

// EnvPrefix prefixes every environment override, e.g. SHEETRAN_DISPATCH_RPM.
const EnvPrefix = "SHEETRAN"

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Model    string         `mapstructure:"model"`
	Target   string         `mapstructure:"target"`
	Sheet    string         `mapstructure:"sheet"`
	Choice   string         `mapstructure:"choice"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type APIConfig struct {
	Key     string        `mapstructure:"key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DispatchConfig struct {
	RPM          int           `mapstructure:"rpm"`
	Interval     time.Duration `mapstructure:"interval"`
	FirstBurst   string        `mapstructure:"first_burst"`
	ReleaseOrder string        `mapstructure:"release_order"`
}

// CacheConfig enables the translation memory when Path is set.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.key", "")
	v.SetDefault("api.base_url", completion.DefaultBaseURL)
	v.SetDefault("api.timeout", 120*time.Second)

	v.SetDefault("model", "text-davinci-003")
	v.SetDefault("target", "ro")
	v.SetDefault("sheet", "Worksheet")
	v.SetDefault("choice", string(completion.LastChoice))

	v.SetDefault("dispatch.rpm", 60)
	v.SetDefault("dispatch.interval", 60*time.Second)
	v.SetDefault("dispatch.first_burst", string(dispatcher.Immediate))
	v.SetDefault("dispatch.release_order", string(queue.FIFO))

	v.SetDefault("cache.path", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
}

// Setup wires environment lookup and defaults into v. OPENAI_API_KEY is
// accepted for api.key alongside SHEETRAN_API_KEY.
func Setup(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY")

	SetDefaults(v)
}

// ReadFile reads path, or .sheetran.yaml from the working directory and
// home directory when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path, home string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName(".sheetran")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home != "" {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load decodes v into a Config. It does not validate.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a translate run depends on. It does not
// check the credential, which is validated when the client is built.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model must not be empty")
	}
	if strings.TrimSpace(c.Sheet) == "" {
		return fmt.Errorf("sheet must not be empty")
	}
	if _, err := language.Parse(c.Target); err != nil {
		return fmt.Errorf("invalid target language %q: %w", c.Target, err)
	}
	if _, err := completion.ParseChoicePolicy(c.Choice); err != nil {
		return err
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must not be negative, got %s", c.API.Timeout)
	}
	if _, _, err := c.Dispatch.Resolve(); err != nil {
		return err
	}
	return nil
}

// ChoicePolicy returns the parsed candidate selection rule.
func (c *Config) ChoicePolicy() (completion.ChoicePolicy, error) {
	return completion.ParseChoicePolicy(c.Choice)
}

// Resolve converts the dispatch settings into the dispatcher's config and
// the queue release order.
func (d DispatchConfig) Resolve() (dispatcher.Config, queue.Order, error) {
	if d.RPM <= 0 {
		return dispatcher.Config{}, "", fmt.Errorf("rpm must be positive, got %d", d.RPM)
	}
	if d.Interval <= 0 {
		return dispatcher.Config{}, "", fmt.Errorf("interval must be positive, got %s", d.Interval)
	}
	burst, err := dispatcher.ParseFirstBurst(d.FirstBurst)
	if err != nil {
		return dispatcher.Config{}, "", err
	}
	order, err := queue.ParseOrder(d.ReleaseOrder)
	if err != nil {
		return dispatcher.Config{}, "", err
	}

	return dispatcher.Config{
		RPM:        d.RPM,
		Interval:   d.Interval,
		FirstBurst: burst,
	}, order, nil
}
