package ranking

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
)

// DecodeImage reads a JPEG or PNG image.
func DecodeImage(r io.Reader) (image.Image, error) {
	m, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeImage writes img as JPEG or PNG. quality only applies to JPEG.
func EncodeImage(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		return png.Encode(w, img)
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// FormatExtension is the file extension of an encoded format.
func FormatExtension(format string) string {
	if format == FormatPNG {
		return ".png"
	}
	return ".jpg"
}
