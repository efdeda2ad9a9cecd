package media

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/totegamma/messboard/internal/domain"
)

const (
	DefaultLocalMaxBytes  int64 = 3 << 20
	DefaultObjectMaxBytes int64 = 10 << 20
)

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// inspect checks the declared type against the allow-list and the sniffed content,
// and returns the canonical type and file extension.
func inspect(data []byte, declared string, maxBytes int64) (string, string, error) {
	if len(data) == 0 {
		return "", "", domain.UploadError{Reason: "empty file"}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", "", domain.UploadError{Reason: fmt.Sprintf("file exceeds %d bytes", maxBytes)}
	}

	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(declared))
	}
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	ext, ok := allowed[mediaType]
	if !ok {
		return "", "", domain.UploadError{Reason: fmt.Sprintf("type %q is not allowed", declared)}
	}

	detected := mimetype.Detect(data)
	if !detected.Is(mediaType) {
		return "", "", domain.UploadError{Reason: fmt.Sprintf("content is %s, declared %s", detected.String(), mediaType)}
	}

	return mediaType, ext, nil
}
