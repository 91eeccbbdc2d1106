// Package mirror keeps a local copy of the published source containers in
// sync with a GCS bucket, so the pipelines always work from local files.
package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// Mirror downloads bucket objects into a local directory, skipping the ones
// already present. It assumes Application Default Credentials are configured.
type Mirror struct {
	bucket string
	prefix string
	log    zerolog.Logger
}

func New(bucket, prefix string, log zerolog.Logger) *Mirror {
	return &Mirror{bucket: bucket, prefix: prefix, log: log}
}

// Sync lists the bucket under the configured prefix and downloads every zip
// object missing locally. Returns the local paths of newly fetched files.
func (m *Mirror) Sync(ctx context.Context, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror dir %s: %w", dir, err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	bkt := client.Bucket(m.bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: m.prefix})

	var fetched []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fetched, fmt.Errorf("list gs://%s/%s: %w", m.bucket, m.prefix, err)
		}
		if !strings.HasSuffix(strings.ToLower(attrs.Name), ".zip") {
			continue
		}
		local := filepath.Join(dir, path.Base(attrs.Name))
		if _, err := os.Stat(local); err == nil {
			continue
		}
		if err := m.download(ctx, bkt, attrs.Name, local); err != nil {
			return fetched, err
		}
		m.log.Info().Str("object", attrs.Name).Str("local", local).Msg("container fetched")
		fetched = append(fetched, local)
	}
	return fetched, nil
}

// download streams one object to a local file, atomically.
func (m *Mirror) download(ctx context.Context, bkt *storage.BucketHandle, object, local string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	r, err := bkt.Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open gs://%s/%s: %w", m.bucket, object, err)
	}
	defer r.Close()

	tmp := local + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("download gs://%s/%s: %w", m.bucket, object, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish %s: %w", local, err)
	}
	return nil
}
