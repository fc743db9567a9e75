package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
)

// Global configuration structure.
type Global struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=json console"`

	// Object storage
	StorageBackend   string `mapstructure:"storage_backend" yaml:"storage_backend" validate:"oneof=local redis azure"`
	StorageDir       string `mapstructure:"storage_dir" yaml:"storage_dir"`
	StorageContainer string `mapstructure:"storage_container" yaml:"storage_container" validate:"required"`

	// Azure Storage account shared by the blob and queue backends
	AzureStorageAccount string `mapstructure:"azure_storage_account" yaml:"azure_storage_account"`
	AzureStorageKey     string `mapstructure:"azure_storage_key" yaml:"azure_storage_key"`
	AzureBlobEndpoint   string `mapstructure:"azure_blob_endpoint" yaml:"azure_blob_endpoint" validate:"omitempty,url"`
	AzureQueueEndpoint  string `mapstructure:"azure_queue_endpoint" yaml:"azure_queue_endpoint" validate:"omitempty,url"`

	// Redis
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db" validate:"gte=0"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// Notification queue
	QueueBackend string `mapstructure:"queue_backend" yaml:"queue_backend" validate:"oneof=log redis lmstfy azure"`
	QueueName    string `mapstructure:"queue_name" yaml:"queue_name" validate:"required"`

	// lmstfy
	LmstfyHost      string `mapstructure:"lmstfy_host" yaml:"lmstfy_host"`
	LmstfyPort      int    `mapstructure:"lmstfy_port" yaml:"lmstfy_port" validate:"gte=0,lte=65535"`
	LmstfyNamespace string `mapstructure:"lmstfy_namespace" yaml:"lmstfy_namespace"`
	LmstfyToken     string `mapstructure:"lmstfy_token" yaml:"lmstfy_token"`
	LmstfyTTLSec    int    `mapstructure:"lmstfy_ttl_sec" yaml:"lmstfy_ttl_sec" validate:"gte=0"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=1"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"gte=1"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"gte=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"gtefield=RetryBaseDelayMs"`

	// Analysis
	StrictHeaders   bool   `mapstructure:"strict_headers" yaml:"strict_headers"`
	FlagUnparseable bool   `mapstructure:"flag_unparseable" yaml:"flag_unparseable"`
	QuantityMatch   string `mapstructure:"quantity_match" yaml:"quantity_match" validate:"required"`
	XLSXSheet       string `mapstructure:"xlsx_sheet" yaml:"xlsx_sheet"`
}

// AnalysisOptions maps the analysis keys onto analysis.Options.
func (c *Global) AnalysisOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	opt.StrictHeaders = c.StrictHeaders
	opt.FlagUnparseable = c.FlagUnparseable
	if c.QuantityMatch != "" {
		opt.Columns.QuantityMatch = c.QuantityMatch
	}
	return opt
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".csvsentry"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.csvsentry/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CSVSENTRY")
	v.AutomaticEnv()
	// Variable names used by existing Azure deployments
	_ = v.BindEnv("azure_storage_account", "CSVSENTRY_AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_ACCOUNT")
	_ = v.BindEnv("azure_storage_key", "CSVSENTRY_AZURE_STORAGE_KEY", "AZURE_STORAGE_KEY")
	_ = v.BindEnv("storage_container", "CSVSENTRY_STORAGE_CONTAINER", "AZURE_STORAGE_CONTAINER")
	_ = v.BindEnv("queue_name", "CSVSENTRY_QUEUE_NAME", "AZURE_QUEUE_NAME")

	v.SetDefault("listen_addr", ":3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("storage_backend", "local")
	v.SetDefault("storage_dir", "")
	v.SetDefault("storage_container", "uploads")
	v.SetDefault("azure_storage_account", "")
	v.SetDefault("azure_storage_key", "")
	v.SetDefault("azure_blob_endpoint", "")
	v.SetDefault("azure_queue_endpoint", "")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "csvsentry")
	v.SetDefault("queue_backend", "log")
	v.SetDefault("queue_name", "analysis-notifications")
	v.SetDefault("lmstfy_host", "127.0.0.1")
	v.SetDefault("lmstfy_port", 7777)
	v.SetDefault("lmstfy_namespace", "")
	v.SetDefault("lmstfy_token", "")
	v.SetDefault("lmstfy_ttl_sec", 86400)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Analysis defaults
	v.SetDefault("strict_headers", false)
	v.SetDefault("flag_unparseable", true)
	v.SetDefault("quantity_match", "quantit")
	v.SetDefault("xlsx_sheet", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve storage_dir default: ~/.csvsentry/storage
	if c.StorageDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.StorageDir = filepath.Join(dir, "storage")
	}
	return &c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml key names so messages match what users write in config.yaml
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(backendCredentials, Global{})
	return v
}

// backendCredentials requires the connection settings of the selected backends.
func backendCredentials(sl validator.StructLevel) {
	c := sl.Current().Interface().(Global)
	if c.StorageBackend == "azure" || c.QueueBackend == "azure" {
		if c.AzureStorageAccount == "" {
			sl.ReportError(c.AzureStorageAccount, "azure_storage_account", "AzureStorageAccount", "required", "")
		}
		if c.AzureStorageKey == "" {
			sl.ReportError(c.AzureStorageKey, "azure_storage_key", "AzureStorageKey", "required", "")
		}
	}
	if (c.StorageBackend == "redis" || c.QueueBackend == "redis") && c.RedisAddr == "" {
		sl.ReportError(c.RedisAddr, "redis_addr", "RedisAddr", "required", "")
	}
	if c.QueueBackend == "lmstfy" {
		if c.LmstfyHost == "" {
			sl.ReportError(c.LmstfyHost, "lmstfy_host", "LmstfyHost", "required", "")
		}
		if c.LmstfyNamespace == "" {
			sl.ReportError(c.LmstfyNamespace, "lmstfy_namespace", "LmstfyNamespace", "required", "")
		}
		if c.LmstfyToken == "" {
			sl.ReportError(c.LmstfyToken, "lmstfy_token", "LmstfyToken", "required", "")
		}
	}
	if c.StorageBackend == "local" && c.StorageDir == "" {
		sl.ReportError(c.StorageDir, "storage_dir", "StorageDir", "required", "")
	}
}

// Validate checks enum values, ranges and the credentials required by the selected backends.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be smaller than retry_base_delay_ms", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
