package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/pkg/validation"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

const blobHostSuffix = ".blob.core.windows.net"

// BlobLocation identifies a blob inside a storage account.
type BlobLocation struct {
	Account   string
	Container string
	Blob      string
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>.
// The blob name may also be given as a "blob" query parameter when the path
// names only the container.
func ParseBlobURL(blobURL string) (BlobLocation, error) {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return BlobLocation{}, apperrors.NewValidationError("invalid blob URL", err)
	}
	if !strings.HasSuffix(parsed.Host, blobHostSuffix) {
		return BlobLocation{}, apperrors.NewValidationError(
			fmt.Sprintf("blob URL host %q is not an Azure blob endpoint", parsed.Host), nil)
	}

	loc := BlobLocation{Account: strings.TrimSuffix(parsed.Host, blobHostSuffix)}
	path := strings.TrimPrefix(parsed.Path, "/")
	container, blob, _ := strings.Cut(path, "/")
	if blob == "" {
		blob = parsed.Query().Get("blob")
	}
	if loc.Account == "" || container == "" || blob == "" {
		return BlobLocation{}, apperrors.NewValidationError(
			fmt.Sprintf("blob URL %q must name a container and a blob", blobURL), nil)
	}
	loc.Container, loc.Blob = container, blob
	return loc, nil
}

// AzureBlobFetcher downloads frames from one Azure storage account.
type AzureBlobFetcher struct {
	account string
	client  *azblob.Client
	limits  validation.FrameLimits
}

// NewAzureBlobFetcher creates a fetcher authenticated with a shared key
func NewAzureBlobFetcher(accountName, accountKey string) (*AzureBlobFetcher, error) {
	return newAzureBlobFetcher(fmt.Sprintf("https://%s%s", accountName, blobHostSuffix), accountName, accountKey)
}

func newAzureBlobFetcher(serviceURL, accountName, accountKey string) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureBlobFetcher{account: accountName, client: client, limits: validation.DefaultFrameLimits()}, nil
}

// WithLimits sets the largest frame dimensions the fetcher will decode.
func (s *AzureBlobFetcher) WithLimits(limits validation.FrameLimits) *AzureBlobFetcher {
	s.limits = limits
	return s
}

// Limits returns the dimension limits applied before decoding.
func (s *AzureBlobFetcher) Limits() validation.FrameLimits {
	return s.limits
}

// FetchFrame downloads and decodes the blob named by frameURL
func (s *AzureBlobFetcher) FetchFrame(ctx context.Context, frameURL string) (image.Image, error) {
	loc, err := ParseBlobURL(frameURL)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(loc.Account, s.account) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("blob account %q does not match configured account %q", loc.Account, s.account), nil)
	}

	resp, err := s.client.DownloadStream(ctx, loc.Container, loc.Blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("blob %s/%s not found", loc.Container, loc.Blob), err)
		}
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("blob download cancelled", ctx.Err())
		}
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}

	// The retry reader resumes an interrupted stream from the last byte read.
	body := resp.NewRetryReader(ctx, &azblob.RetryReaderOptions{MaxRetries: fetchAttempts})
	defer body.Close()

	return decodeFrame(body, frameURL, s.limits)
}
