package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var ErrNotFound = errors.New("artifact not found")

var logger = logger_i.NewLogger("Artifact")

// Fetcher copies model artifacts from a storage URI into a local directory.
// gs:// URIs go through Cloud Storage; file:// URIs and plain paths are copied from disk.
type Fetcher struct {
	newStorage func(ctx context.Context) (*storage.Client, error)
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		newStorage: func(ctx context.Context) (*storage.Client, error) {
			return storage.NewClient(ctx)
		},
	}
}

// Fetch downloads uri/name to destDir/name and returns the local path
func (f *Fetcher) Fetch(ctx context.Context, uri string, destDir string, name string) (string, error) {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid storage uri %q: %w", uri, err)
	}

	switch parsed.Scheme {
	case "gs":
		return dest, f.fetchGCS(ctx, parsed.Host, path.Join(strings.TrimPrefix(parsed.Path, "/"), name), dest)
	case "file":
		return dest, copyLocal(filepath.Join(parsed.Path, name), dest)
	case "":
		return dest, copyLocal(filepath.Join(uri, name), dest)
	default:
		return "", fmt.Errorf("unsupported storage scheme %q", parsed.Scheme)
	}
}

func (f *Fetcher) fetchGCS(ctx context.Context, bucket string, object string, dest string) error {
	log := logger.WithTrace(ctx).With("bucket", bucket, "object", object)
	client, err := f.newStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", object, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to open gcs object: %w", err)
	}
	defer reader.Close()

	if err := writeFile(dest, reader); err != nil {
		return err
	}
	log.Info("Downloaded model artifact", "dest", dest)
	return nil
}

func copyLocal(src, dest string) error {
	if filepath.Clean(src) == filepath.Clean(dest) {
		return nil
	}
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFile(dest, in)
}

// writeFile writes through a temp file so a failed copy never leaves a truncated artifact
func writeFile(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".artifact-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
