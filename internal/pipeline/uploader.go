package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Uploader persists one binary payload to durable external storage and
// returns a globally reachable URL plus the object key it was stored under.
// Delete is idempotent: removing a key that no longer exists is not an error.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// FilePart is one file field extracted from a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult ties an uploaded file back to its field.
type UploadResult struct {
	Field string
	Key   string
	URL   string
}

// UploadAll pushes every file concurrently and waits for all of them. If any
// one fails the whole set fails with an UploadError; already-uploaded
// siblings stay in the object store unreferenced. Each upload runs under its
// own bounded timeout.
func UploadAll(ctx context.Context, up Uploader, folder string, files []FilePart, timeout time.Duration) ([]UploadResult, error) {
	results := make([]UploadResult, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, fp := range files {
		i, fp := i, fp
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			key := folder + "/" + uuid.NewString() + "_" + fp.Filename
			url, err := up.Upload(callCtx, key, fp.ContentType, fp.Data)
			if err != nil {
				return &UploadError{Field: fp.Field, Err: err}
			}
			mu.Lock()
			results[i] = UploadResult{Field: fp.Field, Key: key, URL: url}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
