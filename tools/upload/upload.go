package upload

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultMaxBytes = 5 << 20 // 5MB

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Uploader stores incoming images under a local media directory that is
// served statically at /public.
type Uploader struct {
	Dir      string
	MaxBytes int64
}

func New(dir string) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Uploader{Dir: dir, MaxBytes: defaultMaxBytes}, nil
}

// SaveImage persists an uploaded file and returns its public URL path. The
// content is sniffed; anything that is not an image is rejected regardless
// of the claimed filename or Content-Type.
func (u *Uploader) SaveImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > u.MaxBytes {
		return "", errors.Errorf("file too large: %d bytes", fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, u.MaxBytes+1))
	if err != nil {
		return "", errors.Wrap(err, "read upload")
	}
	if int64(len(buf)) > u.MaxBytes {
		return "", errors.New("file too large")
	}

	mt := mimetype.Detect(buf)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", errors.Errorf("only image files are allowed, got %s", mt.String())
	}

	name := safeName(fh.Filename, mt.Extension())
	if err := os.WriteFile(filepath.Join(u.Dir, name), buf, 0o644); err != nil {
		return "", errors.Wrap(err, "write upload")
	}
	return "/public/" + name, nil
}

func safeName(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = unsafeChars.ReplaceAllString(base, "-")
	if base == "" || base == "-" {
		base = "upload"
	}
	return base + "-" + uuid.NewString() + ext
}
