package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/csvsentry/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set csvsentry configuration",
}

var secretKeys = map[string]bool{
	"azure_storage_key": true,
	"redis_password":    true,
	"lmstfy_token":      true,
}

func stringFields(c *cfgpkg.Global) map[string]*string {
	return map[string]*string{
		"listen_addr":           &c.ListenAddr,
		"log_level":             &c.LogLevel,
		"log_format":            &c.LogFormat,
		"storage_backend":       &c.StorageBackend,
		"storage_dir":           &c.StorageDir,
		"storage_container":     &c.StorageContainer,
		"azure_storage_account": &c.AzureStorageAccount,
		"azure_storage_key":     &c.AzureStorageKey,
		"azure_blob_endpoint":   &c.AzureBlobEndpoint,
		"azure_queue_endpoint":  &c.AzureQueueEndpoint,
		"redis_addr":            &c.RedisAddr,
		"redis_password":        &c.RedisPassword,
		"redis_prefix":          &c.RedisPrefix,
		"queue_backend":         &c.QueueBackend,
		"queue_name":            &c.QueueName,
		"lmstfy_host":           &c.LmstfyHost,
		"lmstfy_namespace":      &c.LmstfyNamespace,
		"lmstfy_token":          &c.LmstfyToken,
		"quantity_match":        &c.QuantityMatch,
		"xlsx_sheet":            &c.XLSXSheet,
	}
}

func intFields(c *cfgpkg.Global) map[string]*int {
	return map[string]*int{
		"redis_db":            &c.RedisDB,
		"lmstfy_port":         &c.LmstfyPort,
		"lmstfy_ttl_sec":      &c.LmstfyTTLSec,
		"http_timeout_sec":    &c.HTTPTimeoutSec,
		"retry_max_attempts":  &c.RetryMaxAttempts,
		"retry_base_delay_ms": &c.RetryBaseDelayMs,
		"retry_max_delay_ms":  &c.RetryMaxDelayMs,
	}
}

func boolFields(c *cfgpkg.Global) map[string]*bool {
	return map[string]*bool{
		"strict_headers":   &c.StrictHeaders,
		"flag_unparseable": &c.FlagUnparseable,
	}
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		lines := map[string]string{}
		for k, p := range stringFields(cfg) {
			if secretKeys[k] {
				lines[k] = mask(*p)
				continue
			}
			lines[k] = *p
		}
		for k, p := range intFields(cfg) {
			lines[k] = strconv.Itoa(*p)
		}
		for k, p := range boolFields(cfg) {
			lines[k] = strconv.FormatBool(*p)
		}
		keys := make([]string, 0, len(lines))
		for k := range lines {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %s\n", k, lines[k])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := strings.ToLower(args[0]), args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if p, ok := stringFields(cfg)[key]; ok {
			*p = val
		} else if p, ok := intFields(cfg)[key]; ok {
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			*p = i
		} else if p, ok := boolFields(cfg)[key]; ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for %s: %v", key, val)
			}
			*p = b
		} else {
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
