// Package ingest downloads the raw booking dataset from object storage and
// produces the seeded train/test split the rest of the pipeline consumes.
package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// ObjectFetcher copies one remote object to a local path.
type ObjectFetcher interface {
	Fetch(ctx context.Context, dest string) error
}

// GCSFetcher downloads a single object from a Google Cloud Storage bucket.
type GCSFetcher struct {
	Bucket string
	Object string

	opts []option.ClientOption
}

// NewGCSFetcher creates a fetcher for bucket/object. A non-empty credentials
// file overrides ambient credentials.
func NewGCSFetcher(bucket, object, credentialsFile string) *GCSFetcher {
	f := &GCSFetcher{Bucket: bucket, Object: object}
	if credentialsFile != "" {
		f.opts = append(f.opts, option.WithCredentialsFile(credentialsFile))
	}
	return f
}

// Fetch implements ObjectFetcher.
func (f *GCSFetcher) Fetch(ctx context.Context, dest string) error {
	client, err := storage.NewClient(ctx, f.opts...)
	if err != nil {
		return errors.NewStageError(errors.StageIngestion, "storage client", err)
	}
	defer client.Close()

	reader, err := client.Bucket(f.Bucket).Object(f.Object).NewReader(ctx)
	if err != nil {
		return errors.NewStageError(errors.StageIngestion,
			"open gs://"+f.Bucket+"/"+f.Object, err)
	}
	defer reader.Close()

	if err := writeStream(dest, reader); err != nil {
		return err
	}
	log.GetLoggerWithName("ingest.gcs").Info("object downloaded",
		"bucket", f.Bucket,
		"object", f.Object,
		"dest", dest,
		"bytes", reader.Attrs.Size)
	return nil
}

// FileFetcher copies a local file. It backs tests and local runs where the
// dataset is already on disk.
type FileFetcher struct {
	Path string
}

// Fetch implements ObjectFetcher.
func (f *FileFetcher) Fetch(ctx context.Context, dest string) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return errors.NewStageError(errors.StageIngestion, "open "+f.Path, err)
	}
	defer src.Close()
	return writeStream(dest, src)
}

func writeStream(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.NewArtifactError("writeStream", dest, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return errors.NewArtifactError("writeStream", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return errors.NewArtifactError("writeStream", dest, err)
	}
	return nil
}
