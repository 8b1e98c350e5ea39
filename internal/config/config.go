// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"merchant-statements/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	// Period selects the reporting month. Zero values mean "previous
	// calendar month", resolved at load time.
	Period struct {
		Year  int `mapstructure:"year" yaml:"year"`
		Month int `mapstructure:"month" yaml:"month"`
	} `mapstructure:"period" yaml:"period"`

	Data struct {
		InputDir     string `mapstructure:"input_dir" yaml:"input_dir"`
		OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
		StateDir     string `mapstructure:"state_dir" yaml:"state_dir"`
		StagingDir   string `mapstructure:"staging_dir" yaml:"staging_dir"`
		TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
		TextsFile    string `mapstructure:"texts_file" yaml:"texts_file"`
	} `mapstructure:"data" yaml:"data"`

	Run struct {
		Workers           int  `mapstructure:"workers" yaml:"workers"`
		GenerateFee       bool `mapstructure:"generate_fee" yaml:"generate_fee"`
		GenerateRefund    bool `mapstructure:"generate_refund" yaml:"generate_refund"`
		GenerateAcquiring bool `mapstructure:"generate_acquiring" yaml:"generate_acquiring"`
		Deliver           bool `mapstructure:"deliver" yaml:"deliver"`
	} `mapstructure:"run" yaml:"run"`

	Mail struct {
		Host          string `mapstructure:"host" yaml:"host"`
		Port          int    `mapstructure:"port" yaml:"port"`
		User          string `mapstructure:"user" yaml:"user"`
		Password      string `mapstructure:"password" yaml:"-"` // Never serialize credentials
		From          string `mapstructure:"from" yaml:"from"`
		Subject       string `mapstructure:"subject" yaml:"subject"`
		Body          string `mapstructure:"body" yaml:"body"`
		TestRecipient string `mapstructure:"test_recipient" yaml:"test_recipient"`
		SendToAll     bool   `mapstructure:"send_to_all" yaml:"send_to_all"`
	} `mapstructure:"mail" yaml:"mail"`
}

// ResolvedPeriod returns the configured period, defaulting to the month
// before now when the config leaves it unset.
func (c *Config) ResolvedPeriod(now time.Time) models.Period {
	if c.Period.Year == 0 || c.Period.Month == 0 {
		return models.PreviousMonth(now)
	}
	return models.Period{Year: c.Period.Year, Month: c.Period.Month}
}

// GenerationEnabled reports whether the execution flags enable generation of
// a document kind.
func (c *Config) GenerationEnabled(doc models.DocumentKind) bool {
	switch doc {
	case models.DocFee:
		return c.Run.GenerateFee
	case models.DocRefund:
		return c.Run.GenerateRefund
	case models.DocAcquiring:
		return c.Run.GenerateAcquiring
	}
	return false
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.merchant-statements")
	v.AddConfigPath(".merchant-statements")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("STMT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Credentials always come from the environment, not the config file
	if err := v.BindEnv("mail.password", "SMTP_PASSWORD"); err != nil {
		fmt.Printf("Warning: failed to bind SMTP_PASSWORD environment variable: %v\n", err)
	}
	if err := v.BindEnv("mail.user", "SMTP_USER"); err != nil {
		fmt.Printf("Warning: failed to bind SMTP_USER environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Period defaults to zero: resolved to previous month at run time.
	v.SetDefault("period.year", 0)
	v.SetDefault("period.month", 0)

	v.SetDefault("data.input_dir", "data/input")
	v.SetDefault("data.output_dir", "data/output")
	v.SetDefault("data.state_dir", "data/state")
	v.SetDefault("data.staging_dir", "data/staging")
	v.SetDefault("data.templates_dir", "templates")
	v.SetDefault("data.texts_file", "statement_texts.yaml")

	v.SetDefault("run.workers", 10)
	v.SetDefault("run.generate_fee", true)
	v.SetDefault("run.generate_refund", true)
	v.SetDefault("run.generate_acquiring", true)
	v.SetDefault("run.deliver", false)

	v.SetDefault("mail.host", "email-smtp.us-east-1.amazonaws.com")
	v.SetDefault("mail.port", 465)
	v.SetDefault("mail.subject", "Estado de cuenta {MES} {ANIO}")
	v.SetDefault("mail.body", "Adjuntamos su estado de cuenta correspondiente a {MES} {ANIO}.")
	v.SetDefault("mail.send_to_all", false)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if (config.Period.Year == 0) != (config.Period.Month == 0) {
		return fmt.Errorf("period.year and period.month must be set together")
	}
	if config.Period.Month != 0 {
		p := models.Period{Year: config.Period.Year, Month: config.Period.Month}
		if !p.Valid() {
			return fmt.Errorf("invalid period: %d/%d", config.Period.Month, config.Period.Year)
		}
	}

	if config.Run.Workers < 1 || config.Run.Workers > 64 {
		return fmt.Errorf("run.workers must be between 1 and 64, got: %d", config.Run.Workers)
	}

	if config.Run.Deliver {
		if config.Mail.Host == "" || config.Mail.From == "" {
			return fmt.Errorf("mail.host and mail.from required when run.deliver is enabled")
		}
		if !config.Mail.SendToAll && config.Mail.TestRecipient == "" {
			return fmt.Errorf("mail.test_recipient required when mail.send_to_all is disabled")
		}
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
