package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestStore_SaveImage(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "http://localhost:8080/media/", 0, zaptest.NewLogger(t))

	img, err := s.SaveImage(context.Background(), KindProduct, "Sofa.PNG", bytes.NewReader(testPNG(t, 600, 400)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.URL, "http://localhost:8080/media/product/"))
	assert.True(t, strings.HasSuffix(img.URL, ".png"))
	assert.True(t, strings.HasPrefix(img.ThumbnailURL, "http://localhost:8080/media/product/thumb/"))

	origPath := filepath.Join(root, "product", filepath.Base(img.URL))
	_, err = os.Stat(origPath)
	require.NoError(t, err)

	thumb, err := imaging.Open(filepath.Join(root, "product", "thumb", filepath.Base(img.ThumbnailURL)))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())
}

func TestStore_SaveImageErrors(t *testing.T) {
	s := NewStore(t.TempDir(), "/media", 1024, zaptest.NewLogger(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     Kind
		filename string
		data     []byte
		wantErr  error
	}{
		{name: "unknown kind", kind: "avatar", filename: "a.png", data: testPNG(t, 4, 4), wantErr: ErrUnknownKind},
		{name: "bad extension", kind: KindLogo, filename: "a.bmp", data: testPNG(t, 4, 4), wantErr: ErrUnsupportedFormat},
		{name: "not an image", kind: KindLogo, filename: "a.jpg", data: []byte("hello"), wantErr: ErrUnsupportedFormat},
		{name: "too large", kind: KindLogo, filename: "a.png", data: make([]byte, 2048), wantErr: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveImage(ctx, tt.kind, tt.filename, bytes.NewReader(tt.data))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("logo")
	require.NoError(t, err)
	assert.Equal(t, KindLogo, k)

	_, err = ParseKind("")
	require.ErrorIs(t, err, ErrUnknownKind)
}
