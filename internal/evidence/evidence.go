// Package evidence stores purchase receipts in an external media service.
//
// Evidence is decoupled from the financial ledger: an upload failure never
// rolls back a committed contribution, the caller records the contribution
// without a receipt and may retry the attachment later.
package evidence

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// Uploader stores receipt files externally and returns a stable URL.
type Uploader interface {
	// Upload stores the file content and returns its public URL.
	Upload(ctx context.Context, content io.Reader, filename string) (string, error)
	// Delete removes a previously uploaded file by its public URL.
	Delete(ctx context.Context, fileURL string) error
}

// UploadError wraps a failure of the external media service. Callers treat it
// as a partial failure: the contribution stands, only the receipt is missing.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("evidence upload of %q failed: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ValidateLink checks a caller-supplied evidence URL before it is attached
// as-is, without an upload.
func ValidateLink(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid evidence URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid evidence URL: scheme %q not allowed", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid evidence URL: missing host")
	}
	return nil
}
