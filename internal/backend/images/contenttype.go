package images

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultContentType is served when the file is not a recognised image format.
const DefaultContentType = "image/jpeg"

// DetectContentType reads the image header from r and returns its MIME type.
func DetectContentType(r io.Reader) string {
	_, format, err := image.DecodeConfig(r)
	if err != nil || format == "" {
		return DefaultContentType
	}
	return "image/" + format
}
