package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// AzureOptions configures the Azure Queue Storage backend.
type AzureOptions struct {
	Account  string
	Key      string
	Endpoint string // defaults to https://<account>.queue.core.windows.net/
	Queue    string
}

// Azure enqueues messages on a storage queue.
type Azure struct {
	client *azqueue.QueueClient
}

func NewAzure(o AzureOptions) (*Azure, error) {
	if o.Account == "" || o.Key == "" {
		return nil, errors.New("azure queue: account and key are required")
	}
	cred, err := azqueue.NewSharedKeyCredential(o.Account, o.Key)
	if err != nil {
		return nil, fmt.Errorf("azure queue credential: %w", err)
	}
	endpoint := o.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.queue.core.windows.net/", o.Account)
	}
	queueURL := strings.TrimSuffix(endpoint, "/") + "/" + o.Queue
	qc, err := azqueue.NewQueueClientWithSharedKeyCredential(queueURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure queue client: %w", err)
	}
	return &Azure{client: qc}, nil
}

func (a *Azure) Send(ctx context.Context, message string) error {
	if _, err := a.client.EnqueueMessage(ctx, message, nil); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}
