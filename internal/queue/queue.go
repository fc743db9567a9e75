// Package queue delivers completion notifications to a message transport.
package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/config"
)

// Sender delivers one encoded message.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// Encode renders v as base64 of its JSON form, the body format queue consumers expect.
func Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode reverses Encode into v.
func Decode(message string, v any) error {
	b, err := base64.StdEncoding.DecodeString(message)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// New builds the sender selected by cfg.QueueBackend.
func New(cfg *config.Global, logger *zap.Logger) (Sender, error) {
	switch cfg.QueueBackend {
	case "", "log":
		return NewLog(logger, cfg.QueueName), nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QueueName)
	case "lmstfy":
		return NewLmstfy(LmstfyOptions{
			Host:      cfg.LmstfyHost,
			Port:      cfg.LmstfyPort,
			Namespace: cfg.LmstfyNamespace,
			Token:     cfg.LmstfyToken,
			Queue:     cfg.QueueName,
			TTL:       time.Duration(cfg.LmstfyTTLSec) * time.Second,
		})
	case "azure":
		return NewAzure(AzureOptions{
			Account:  cfg.AzureStorageAccount,
			Key:      cfg.AzureStorageKey,
			Endpoint: cfg.AzureQueueEndpoint,
			Queue:    cfg.QueueName,
		})
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
}
