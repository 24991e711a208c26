package relay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"omnirelay/internal/config"
)

// Compile-time check: AzureUploader implements Uploader.
var _ Uploader = (*AzureUploader)(nil)

// AzureUploader mirrors artifacts into an Azure Blob Storage container
// using shared-key credentials.
type AzureUploader struct {
	client    *azblob.Client
	account   string
	container string
}

// NewAzureUploader creates the mirror from the Azure mirror configuration.
func NewAzureUploader(m *config.MirrorConfig) (*AzureUploader, error) {
	if !m.HasAzure() {
		return nil, fmt.Errorf("Azure mirror config is incomplete")
	}

	cred, err := azblob.NewSharedKeyCredential(m.AzureAccount, m.AzureKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", m.AzureAccount)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &AzureUploader{
		client:    client,
		account:   m.AzureAccount,
		container: m.AzureContainer,
	}, nil
}

func (u *AzureUploader) Name() string { return "azure" }

// Upload puts the artifact under its file name and returns the blob URL.
func (u *AzureUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath) //nolint:gosec // artifact path produced by the retriever
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck

	name := filepath.Base(localPath)
	contentType := xlsxMIME
	_, err = u.client.UploadFile(ctx, u.container, name, f, &azblob.UploadFileOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s/%s: %w", u.container, name, err)
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", u.account, u.container, name), nil
}
