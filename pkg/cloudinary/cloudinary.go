package cloudinary

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
	"github.com/google/uuid"
)

// Eager transformation applied at upload time so the CDN serves an
// already-optimized rendition.
const imageEager = "q_auto,f_auto,w_800,c_fill"

var eagerAsyncFalse = false

// Client wraps Cloudinary image uploads for the catalog.
type Client struct {
	cloudName string
	uploader  *uploader.API
}

// NewClient builds a Client from credentials. Returns nil without error
// when the cloud name is empty so image uploads degrade gracefully.
func NewClient(cloudName, apiKey, apiSecret string) (*Client, error) {
	if cloudName == "" {
		return nil, nil
	}
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{cloudName: cloudName, uploader: up}, nil
}

// UploadImage uploads a multipart image into the given folder and returns
// its secure URL.
func (c *Client) UploadImage(ctx context.Context, fh *multipart.FileHeader, folder string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	publicID := fmt.Sprintf("%s-%s", name, uuid.NewString()[:8])

	result, err := c.uploader.Upload(ctx, f, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	return result.SecureURL, nil
}
