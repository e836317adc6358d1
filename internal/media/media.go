// Package media stores uploaded product photos and store logos on disk.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind selects the folder an upload is stored in.
type Kind string

const (
	KindProduct Kind = "product"
	KindLogo    Kind = "logo"
)

// ThumbnailWidth is the width of generated thumbnails. Height keeps the aspect
// ratio.
const ThumbnailWidth = 300

// DefaultMaxBytes caps an upload at 5 MiB.
const DefaultMaxBytes = 5 << 20

var (
	ErrUnknownKind       = errors.New("unknown media kind")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image exceeds size limit")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// ParseKind validates a kind taken from a request path.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindProduct, KindLogo:
		return k, nil
	default:
		return "", errors.Wrap(ErrUnknownKind, s)
	}
}

// Image holds the public URLs of a stored upload.
type Image struct {
	URL          string
	ThumbnailURL string
}

// Store writes images under root and serves them from baseURL.
type Store struct {
	root     string
	baseURL  string
	maxBytes int64
	lg       *zap.Logger
}

// NewStore creates a Store. A non-positive maxBytes uses DefaultMaxBytes.
func NewStore(root, baseURL string, maxBytes int64, lg *zap.Logger) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		root:     root,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		lg:       lg,
	}
}

// Root returns the directory files are written to.
func (s *Store) Root() string { return s.root }

// SaveImage decodes r, stores the original bytes and a thumbnail, and returns
// their URLs. The stored name is random; filename only contributes its
// extension.
func (s *Store) SaveImage(ctx context.Context, kind Kind, filename string, r io.Reader) (*Image, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, errors.Wrap(ErrUnsupportedFormat, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedFormat, err.Error())
	}

	name := uuid.NewString()
	dir := filepath.Join(s.root, string(kind))
	thumbDir := filepath.Join(dir, "thumb")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %q: %w", thumbDir, err)
	}

	origName := name + ext
	if err := os.WriteFile(filepath.Join(dir, origName), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing original: %w", err)
	}

	thumbName := name + ".jpg"
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, thumbName), imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("writing thumbnail: %w", err)
	}

	s.lg.Info("Image stored",
		zap.String("kind", string(kind)),
		zap.String("format", format),
		zap.String("name", origName),
		zap.Int("bytes", len(data)),
	)

	return &Image{
		URL:          s.url(string(kind), origName),
		ThumbnailURL: s.url(string(kind), "thumb", thumbName),
	}, nil
}

func (s *Store) url(parts ...string) string {
	return s.baseURL + "/" + path.Join(parts...)
}
