package pdfimage

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Encoding classifies how an image stream's bytes must be materialized.
type Encoding int

const (
	// EncodingUnsupported streams are skipped (CCITTFax, JBIG2, LZW, ...).
	EncodingUnsupported Encoding = iota
	// EncodingJPEG streams are complete JPEG files.
	EncodingJPEG
	// EncodingJPX streams are complete JPEG 2000 files.
	EncodingJPX
	// EncodingRaw streams hold raw pixel samples, possibly Flate-compressed.
	EncodingRaw
)

const (
	filterFlate = "FlateDecode"
	filterDCT   = "DCTDecode"
	filterJPX   = "JPXDecode"
)

// Extension returns the temp-file extension for e.
func (e Encoding) Extension() string {
	switch e {
	case EncodingJPEG:
		return ".jpg"
	case EncodingJPX:
		return ".jp2"
	case EncodingRaw:
		return ".png"
	default:
		return ""
	}
}

// Classify maps a filter chain to an Encoding. The last filter decides;
// every earlier stage must be Flate so it can be undone first.
func Classify(filters []string) Encoding {
	if len(filters) == 0 {
		return EncodingRaw
	}
	for _, f := range filters[:len(filters)-1] {
		if f != filterFlate {
			return EncodingUnsupported
		}
	}
	switch filters[len(filters)-1] {
	case filterDCT:
		return EncodingJPEG
	case filterJPX:
		return EncodingJPX
	case filterFlate:
		return EncodingRaw
	default:
		return EncodingUnsupported
	}
}

// Channels returns the sample count per pixel for a PDF colour space family.
// CMYK and unknown spaces are treated as 3 channels; for true CMYK data this
// misreads the pixel layout.
func Channels(colorSpace string) int {
	switch colorSpace {
	case "DeviceGray", "CalGray", "Indexed":
		return 1
	case "DeviceRGB", "CalRGB", "ICCBased":
		return 3
	default:
		return 3
	}
}

// EncodePNG builds an 8-bit gray (channels == 1) or RGB (channels == 3)
// raster from raw samples and encodes it losslessly.
func EncodePNG(raw []byte, width, height, channels int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	need := int64(width) * int64(height) * int64(channels)
	if int64(len(raw)) < need {
		return nil, fmt.Errorf("pixel data too short: have %d bytes, need %d", len(raw), need)
	}

	var img image.Image
	switch channels {
	case 1:
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, raw[:need])
		img = gray
	case 3:
		rgba := image.NewNRGBA(image.Rect(0, 0, width, height))
		for i, j := 0, 0; i < int(need); i, j = i+3, j+4 {
			rgba.Pix[j] = raw[i]
			rgba.Pix[j+1] = raw[i+1]
			rgba.Pix[j+2] = raw[i+2]
			rgba.Pix[j+3] = 0xff
		}
		img = rgba
	default:
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
