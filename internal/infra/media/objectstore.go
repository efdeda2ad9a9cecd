package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/totegamma/messboard/client"
	"github.com/totegamma/messboard/internal/domain"
)

// ObjectStore keeps uploads in a remote bucket.
type ObjectStore struct {
	client   *client.Client
	prefix   string
	maxBytes int64
}

func NewObjectStore(c *client.Client, prefix string, maxBytes int64) *ObjectStore {
	if maxBytes <= 0 {
		maxBytes = DefaultObjectMaxBytes
	}
	return &ObjectStore{
		client:   c,
		prefix:   prefix,
		maxBytes: maxBytes,
	}
}

func (s *ObjectStore) Store(ctx context.Context, data []byte, mimeType string) (string, error) {
	ctx, span := tracer.Start(ctx, "Media.ObjectStore.Store")
	defer span.End()

	contentType, ext, err := inspect(data, mimeType, s.maxBytes)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s%d-%s%s", s.prefix, time.Now().UnixMilli(), uuid.NewString(), ext)
	if err := s.client.PutObject(ctx, key, contentType, data); err != nil {
		span.RecordError(err)
		return "", domain.UploadError{Reason: "object store rejected the file"}
	}

	return s.client.PublicURL(key), nil
}

func (s *ObjectStore) Remove(ctx context.Context, ref string) error {
	ctx, span := tracer.Start(ctx, "Media.ObjectStore.Remove")
	defer span.End()

	key, ok := s.client.KeyOf(ref)
	if !ok {
		return nil
	}
	exists, err := s.client.HasObject(ctx, key)
	if err != nil {
		// fall through to the delete, which reports its own failure
		span.RecordError(err)
	} else if !exists {
		return nil
	}
	if err := s.client.DeleteObject(ctx, key); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "ObjectStore.Remove")
	}
	return nil
}
