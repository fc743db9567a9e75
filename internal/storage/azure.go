package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureOptions configures the Azure Blob Storage backend.
type AzureOptions struct {
	Account   string
	Key       string
	Endpoint  string // defaults to https://<account>.blob.core.windows.net/
	Container string
}

// Azure stores objects as block blobs in one container.
type Azure struct {
	client    *azblob.Client
	container string
}

// NewAzure builds a shared-key client. No request is made until first use.
func NewAzure(o AzureOptions) (*Azure, error) {
	if o.Account == "" || o.Key == "" {
		return nil, errors.New("azure storage: account and key are required")
	}
	cred, err := azblob.NewSharedKeyCredential(o.Account, o.Key)
	if err != nil {
		return nil, fmt.Errorf("azure storage credential: %w", err)
	}
	endpoint := o.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", o.Account)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure storage client: %w", err)
	}
	return &Azure{client: client, container: o.Container}, nil
}

func (a *Azure) blob(name string) *blob.Client {
	return a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(name)
}

func (a *Azure) Fetch(ctx context.Context, name string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, name, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func (a *Azure) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	}
	_, err := a.client.UploadBuffer(ctx, a.container, name, data, opts)
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		if _, cerr := a.client.CreateContainer(ctx, a.container, nil); cerr != nil && !bloberror.HasCode(cerr, bloberror.ContainerAlreadyExists) {
			return "", fmt.Errorf("create container %s: %w", a.container, cerr)
		}
		_, err = a.client.UploadBuffer(ctx, a.container, name, data, opts)
	}
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return a.blob(name).URL(), nil
}

func (a *Azure) Exists(ctx context.Context, name string) (bool, error) {
	_, err := a.blob(name).GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return true, nil
}

func (a *Azure) List(ctx context.Context) ([]BlobInfo, error) {
	out := []BlobInfo{}
	pager := a.client.NewListBlobsFlatPager(a.container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", a.container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			bi := BlobInfo{Name: *item.Name}
			if p := item.Properties; p != nil {
				if p.ContentType != nil {
					bi.ContentType = *p.ContentType
				}
				if p.ContentLength != nil {
					bi.Size = *p.ContentLength
				}
				if p.CreationTime != nil {
					bi.CreatedOn = p.CreationTime.UTC()
				}
			}
			out = append(out, bi)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out, nil
}

