package evidence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sethvargo/go-retry"
)

const (
	uploadTimeout  = 60 * time.Second
	deleteTimeout  = 30 * time.Second
	readyPollEvery = 100 * time.Millisecond
	readyDeadline  = 10 * time.Second
)

// CloudinaryConfig holds the credentials and target folder for receipt uploads.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// CloudinaryUploader uploads receipts to a Cloudinary folder.
//
// The underlying client session is created lazily and cached. A failed call
// invalidates the session so the next call authenticates from scratch.
type CloudinaryUploader struct {
	cfg CloudinaryConfig

	mu  sync.Mutex
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader validates the configuration and returns an uploader.
// No network call is made until the first upload.
func NewCloudinaryUploader(cfg CloudinaryConfig) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}
	if cfg.Folder == "" {
		cfg.Folder = "evidence"
	}
	return &CloudinaryUploader{cfg: cfg}, nil
}

// session returns the cached client, establishing and readiness-checking it
// on first use. The readiness probe polls with a bounded deadline so a slow
// provider start surfaces as a timeout instead of hanging the caller.
func (u *CloudinaryUploader) session(ctx context.Context) (*cloudinary.Cloudinary, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cld != nil {
		return u.cld, nil
	}

	cld, err := cloudinary.NewFromParams(u.cfg.CloudName, u.cfg.APIKey, u.cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	backoff := retry.WithMaxDuration(readyDeadline, retry.NewConstant(readyPollEvery))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := cld.Admin.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary not reachable: %w", err)
	}

	u.cld = cld
	return cld, nil
}

// invalidate drops the cached session after a failed call.
func (u *CloudinaryUploader) invalidate() {
	u.mu.Lock()
	u.cld = nil
	u.mu.Unlock()
}

// Upload stores the file in the configured folder and returns its secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, content io.Reader, filename string) (string, error) {
	cld, err := u.session(ctx)
	if err != nil {
		return "", &UploadError{Filename: filename, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	resp, err := cld.Upload.Upload(ctx, content, uploader.UploadParams{
		Folder: u.cfg.Folder,
	})
	if err != nil {
		u.invalidate()
		return "", &UploadError{Filename: filename, Err: err}
	}

	slog.Info("evidence uploaded", "filename", filename, "url", resp.SecureURL)
	return resp.SecureURL, nil
}

// Delete removes an uploaded receipt by its public URL.
func (u *CloudinaryUploader) Delete(ctx context.Context, fileURL string) error {
	publicID, err := extractPublicID(fileURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %w", err)
	}

	cld, err := u.session(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if _, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		u.invalidate()
		return fmt.Errorf("failed to delete evidence: %w", err)
	}
	return nil
}

// extractPublicID recovers the Cloudinary public ID from a delivery URL such
// as https://res.cloudinary.com/demo/image/upload/v1234567890/evidence/abc123.jpg.
func extractPublicID(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", err
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	// cloud name, resource type, delivery type, then the versioned public ID.
	if len(parts) < 4 {
		return "", fmt.Errorf("unrecognized cloudinary URL %q", fileURL)
	}
	rest := parts[3:]
	if len(rest) > 1 && strings.HasPrefix(rest[0], "v") {
		rest = rest[1:]
	}

	publicID := path.Join(rest...)
	publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	if publicID == "" {
		return "", fmt.Errorf("unrecognized cloudinary URL %q", fileURL)
	}
	return publicID, nil
}
