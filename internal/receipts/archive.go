// Package receipts archives scanned receipt images in Google Cloud Storage.
// Archiving is best-effort context for the ledger entry; it is never on the
// create/update critical path.
package receipts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archive stores receipt images under receipts/YYYY/MM/DD/<uuid> in a bucket.
// It assumes Application Default Credentials are configured.
type Archive struct {
	bucket string
}

// NewArchive creates an archive over the given bucket name.
func NewArchive(bucket string) *Archive {
	return &Archive{bucket: bucket}
}

// Store uploads the image bytes and returns the object's gs:// URI.
func (a *Archive) Store(ctx context.Context, imageBytes []byte, mimeType string) (string, error) {
	objectName := fmt.Sprintf("receipts/%s/%s%s",
		time.Now().UTC().Format("2006/01/02"), uuid.NewString(), extensionFor(mimeType))

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := io.Copy(w, bytes.NewReader(imageBytes)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write receipt to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize receipt upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
