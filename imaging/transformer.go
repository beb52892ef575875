package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"stockbuddy/lib/sl"
)

// maxWidth caps the published image; wider uploads are scaled down
// proportionally before re-encoding.
const maxWidth = 256

type Transformer struct {
	log *slog.Logger
}

func NewTransformer(log *slog.Logger) *Transformer {
	return &Transformer{
		log: log.With(sl.Module("imaging")),
	}
}

// Transform decodes the uploaded file, caps its width at 256px and
// re-encodes it as PNG. The caller owns removal of the source file.
func (t *Transformer) Transform(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			t.log.Error("closing upload file", sl.Err(err))
		}
	}()

	src, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth {
		scaled := maxWidth * height / width
		if scaled < 1 {
			scaled = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, scaled))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}

	t.log.With(
		slog.String("format", format),
		slog.Int("width", width),
		slog.Int("height", height),
		slog.Int("bytes", buf.Len()),
	).Debug("image transformed")

	return buf.Bytes(), nil
}
