package upload

import (
	"context"
	"fmt"
	"net/http"

	"emprendyup-catalog/internal/config"
)

// FromConfig builds the uploader selected by cfg.Driver.
func FromConfig(ctx context.Context, cfg config.UploadConfig, httpClient *http.Client) (Uploader, error) {
	switch cfg.Driver {
	case "", "rest":
		return NewREST(cfg.BaseUrl, cfg.Token, httpClient), nil
	case "s3":
		uploader, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return uploader, nil
	default:
		return nil, fmt.Errorf("unknown UPLOAD_DRIVER: %s", cfg.Driver)
	}
}
