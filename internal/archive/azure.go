package archive

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"voicenote/internal/provider"
)

// Azure uploads audio as block blobs into one container.
type Azure struct {
	container azblob.ContainerURL
}

func NewAzure(account, key, container string) (*Azure, error) {
	if account == "" || key == "" || container == "" {
		return nil, fmt.Errorf("azure account, key and container are required")
	}
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	u, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net/%s", account, container))
	if err != nil {
		return nil, err
	}
	p := azblob.NewPipeline(cred, azblob.PipelineOptions{})
	return &Azure{container: azblob.NewContainerURL(*u, p)}, nil
}

func (a *Azure) Store(ctx context.Context, name string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	blob := a.container.NewBlockBlobURL(name)
	_, err := azblob.UploadBufferToBlockBlob(ctx, data, blob, azblob.UploadToBlockBlobOptions{
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{ContentType: provider.MIMEType(name)},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", name, err)
	}
	u := blob.URL()
	return u.String(), nil
}

func (a *Azure) Close() error { return nil }
