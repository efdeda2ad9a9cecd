package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/messboard/internal/domain"
)

var tracer = otel.Tracer("media")

// LocalStore writes uploads into a directory served under publicPrefix.
type LocalStore struct {
	dir          string
	publicPrefix string
	maxBytes     int64
}

func NewLocalStore(dir, publicPrefix string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "NewLocalStore")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultLocalMaxBytes
	}
	return &LocalStore{
		dir:          dir,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		maxBytes:     maxBytes,
	}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) PublicPrefix() string {
	return s.publicPrefix
}

func (s *LocalStore) Store(ctx context.Context, data []byte, mimeType string) (string, error) {
	_, span := tracer.Start(ctx, "Media.LocalStore.Store")
	defer span.End()

	_, ext, err := inspect(data, mimeType, s.maxBytes)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		span.RecordError(err)
		return "", domain.UploadError{Reason: "could not write file"}
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp)
		span.RecordError(err)
		return "", domain.UploadError{Reason: "could not write file"}
	}

	return path.Join(s.publicPrefix, name), nil
}

// Remove deletes a file previously returned by Store. Unknown references and
// already removed files are ignored.
func (s *LocalStore) Remove(ctx context.Context, ref string) error {
	_, span := tracer.Start(ctx, "Media.LocalStore.Remove")
	defer span.End()

	if !strings.HasPrefix(ref, s.publicPrefix+"/") {
		return nil
	}
	name := path.Base(ref)
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		span.RecordError(err)
		return errors.Wrap(err, "LocalStore.Remove")
	}
	return nil
}
