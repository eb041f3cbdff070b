package media

import (
	"bytes"
	"context"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"marketplace-service/internal/metrics"
	"marketplace-service/internal/pipeline"
)

// ObjectStore is the external object host behind the service.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// URLCache caches presigned URLs so repeated reads don't re-sign.
type URLCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
}

// RecordStore persists media metadata. *Repo implements it.
type RecordStore interface {
	Insert(ctx context.Context, m *Media) error
	GetByID(ctx context.Context, id string) (*Media, error)
	DeleteByID(ctx context.Context, id string) (*Media, error)
}

// Service fronts the object store for the whole application: it is the
// pipeline's Uploader and also backs the direct media endpoints. Store calls
// run behind a circuit breaker so an unreachable host fails fast instead of
// tying up request tasks.
type Service struct {
	repo       RecordStore
	store      ObjectStore
	cache      URLCache
	breaker    *gobreaker.CircuitBreaker
	presignTTL time.Duration
	cacheTTL   time.Duration
	log        *zap.SugaredLogger
}

func NewService(repo RecordStore, store ObjectStore, cache URLCache, presignTTL, cacheTTL time.Duration, log *zap.SugaredLogger) *Service {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "media-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Service{
		repo:       repo,
		store:      store,
		cache:      cache,
		breaker:    breaker,
		presignTTL: presignTTL,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// Upload implements pipeline.Uploader. Images get a best-effort thumbnail
// stored next to the original.
func (s *Service) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	url, err := s.execUpload(ctx, key, contentType, data)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.UploadsTotal.WithLabelValues("ok").Inc()

	if strings.HasPrefix(contentType, "image/") {
		if thumb, terr := makeThumbnail(data); terr == nil {
			if _, terr = s.execUpload(ctx, thumbKey(key), "image/jpeg", thumb); terr != nil {
				s.log.Warnw("thumbnail upload failed", "key", key, "error", terr)
			}
		}
	}
	return url, nil
}

// Delete implements pipeline.Uploader. Removing a key that no longer exists
// succeeds; the thumbnail follows the original.
func (s *Service) Delete(ctx context.Context, key string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.store.Delete(ctx, key)
	})
	if err != nil {
		return err
	}
	if _, terr := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.store.Delete(ctx, thumbKey(key))
	}); terr != nil {
		s.log.Debugw("thumbnail delete failed", "key", key, "error", terr)
	}
	return nil
}

// UploadForUser backs the direct upload endpoint: object first, record after.
func (s *Service) UploadForUser(ctx context.Context, userID, filename, contentType string, data []byte) (*Media, error) {
	id := uuid.NewString()
	key := userID + "/" + id + "_" + filename
	url, err := s.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, &pipeline.UploadError{Field: "file", Err: err}
	}

	kind := "file"
	thumb := ""
	switch {
	case strings.HasPrefix(contentType, "image/"):
		kind = "image"
		thumb = thumbKey(key)
	case strings.HasPrefix(contentType, "video/"):
		kind = "video"
	}
	m := &Media{
		ID:          id,
		UserID:      userID,
		Key:         key,
		URL:         url,
		Thumbnail:   thumb,
		Type:        kind,
		Size:        int64(len(data)),
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SignedURL resolves a media record to a reachable URL, preferring the
// public URL, then the presign cache, then a fresh presign.
func (s *Service) SignedURL(ctx context.Context, id string) (string, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if m.URL != "" {
		return m.URL, nil
	}
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, m.Key); err == nil && cached != "" {
			return cached, nil
		}
	}
	url, err := s.store.PresignURL(ctx, m.Key, s.presignTTL)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, m.Key, url, s.cacheTTL); err != nil {
			s.log.Debugw("presign cache set failed", "key", m.Key, "error", err)
		}
	}
	return url, nil
}

// Remove deletes the record and the object it owns.
func (s *Service) Remove(ctx context.Context, id string) error {
	m, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Delete(ctx, m.Key); err != nil {
		s.log.Warnw("object delete failed", "key", m.Key, "error", err)
	}
	return nil
}

func (s *Service) execUpload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.store.Upload(ctx, key, contentType, data)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func thumbKey(key string) string { return key + "_thumb.jpg" }

func makeThumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Resize(img, 320, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
