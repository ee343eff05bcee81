package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp" // register webp decoding (source only)

	"github.com/starford/fragments/internal/mimetype"
)

const jpegQuality = 90

// reencodeImage returns a transform that decodes a raster payload and
// re-encodes the pixel buffer in the target format. Decoders for PNG,
// JPEG, GIF and WebP are registered; only the first three can be encoded.
func reencodeImage(target string) transform {
	return func(data []byte) ([]byte, error) {
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}

		var buf bytes.Buffer
		switch target {
		case mimetype.ImagePNG:
			err = png.Encode(&buf, img)
		case mimetype.ImageJPEG:
			err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
		case mimetype.ImageGIF:
			err = gif.Encode(&buf, img, nil)
		default:
			return nil, fmt.Errorf("no encoder for %s", target)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s as %s: %w", format, target, err)
		}
		return buf.Bytes(), nil
	}
}
