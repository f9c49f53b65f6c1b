package pdfimage

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a minimal PDF whose objects after the page tree are the
// given image streams. Each stream is {dict entries, payload}.
func buildPDF(t *testing.T, streams [][2]string) []byte {
	t.Helper()

	objs := make([]string, 0, len(streams))
	for _, s := range streams {
		objs = append(objs, imageObject(s))
	}
	return buildPDFObjects(t, objs)
}

func imageObject(s [2]string) string {
	return fmt.Sprintf("<< /Type /XObject /Subtype /Image %s /Length %d >>\nstream\n%s\nendstream",
		s[0], len(s[1]), s[1])
}

// buildPDFObjects assembles a PDF from a page tree followed by extra, which
// start at object 4.
func buildPDFObjects(t *testing.T, extra []string) []byte {
	t.Helper()

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	objs = append(objs, extra...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func deflate(t *testing.T, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.String()
}

type recordingRecognizer struct {
	paths []string
	exts  []string
	text  string
	err   error
	// pngOK records whether each .png file decoded.
	pngOK []bool
}

func (r *recordingRecognizer) Recognize(_ context.Context, path string) (string, error) {
	r.paths = append(r.paths, path)
	r.exts = append(r.exts, filepath.Ext(path))
	if filepath.Ext(path) == ".png" {
		f, err := os.Open(path)
		if err == nil {
			_, decErr := png.Decode(f)
			f.Close()
			r.pngOK = append(r.pngOK, decErr == nil)
		}
	}
	return r.text, r.err
}

func grayStream(w, h int) [2]string {
	return [2]string{
		fmt.Sprintf("/Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8", w, h),
		string(bytes.Repeat([]byte{'A'}, w*h)),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		filters  []string
		expected Encoding
	}{
		{"uncompressed", nil, EncodingRaw},
		{"flate", []string{"FlateDecode"}, EncodingRaw},
		{"jpeg", []string{"DCTDecode"}, EncodingJPEG},
		{"jpeg2000", []string{"JPXDecode"}, EncodingJPX},
		{"flate then jpeg", []string{"FlateDecode", "DCTDecode"}, EncodingJPEG},
		{"ccitt", []string{"CCITTFaxDecode"}, EncodingUnsupported},
		{"jbig2", []string{"JBIG2Decode"}, EncodingUnsupported},
		{"ascii85 then jpeg", []string{"ASCII85Decode", "DCTDecode"}, EncodingUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.filters))
		})
	}
}

func TestChannels(t *testing.T) {
	assert.Equal(t, 1, Channels("DeviceGray"))
	assert.Equal(t, 1, Channels("CalGray"))
	assert.Equal(t, 1, Channels("Indexed"))
	assert.Equal(t, 3, Channels("DeviceRGB"))
	assert.Equal(t, 3, Channels("ICCBased"))
	assert.Equal(t, 3, Channels("DeviceCMYK"))
	assert.Equal(t, 3, Channels(""))
}

func TestEncodePNG(t *testing.T) {
	t.Run("gray", func(t *testing.T) {
		data, err := EncodePNG(bytes.Repeat([]byte{0x80}, 4*3), 4, 3, 1)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 4, img.Bounds().Dx())
		assert.Equal(t, 3, img.Bounds().Dy())
	})

	t.Run("rgb", func(t *testing.T) {
		raw := []byte{255, 0, 0, 0, 255, 0}
		data, err := EncodePNG(raw, 2, 1, 3)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		r, g, _, a := img.At(0, 0).RGBA()
		assert.Equal(t, uint32(0xffff), r)
		assert.Equal(t, uint32(0), g)
		assert.Equal(t, uint32(0xffff), a)
	})

	t.Run("short buffer", func(t *testing.T) {
		_, err := EncodePNG(make([]byte, 5), 2, 2, 3)
		assert.Error(t, err)
	})

	t.Run("bad channels", func(t *testing.T) {
		_, err := EncodePNG(make([]byte, 16), 2, 2, 4)
		assert.Error(t, err)
	})
}

func TestRecover_RawGrayAndJPEG(t *testing.T) {
	// Given: a PDF with a raw gray image, a JPEG image and a thumbnail
	data := buildPDF(t, [][2]string{
		grayStream(120, 100),
		{"/Width 200 /Height 200 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode", "not-really-jpeg"},
		grayStream(50, 50),
	})
	rec := &recordingRecognizer{text: "  scanned words \n"}

	// When: recovering text
	text, err := Recover(context.Background(), data, rec, t.TempDir())

	// Then: both large images were OCRed and joined with blank lines
	require.NoError(t, err)
	assert.Equal(t, "scanned words\n\nscanned words", text)
	assert.Equal(t, []string{".png", ".jpg"}, rec.exts)
	assert.Equal(t, []bool{true}, rec.pngOK)

	// Then: temp files were cleaned up
	for _, p := range rec.paths {
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr))
	}
}

func TestImages_Flate(t *testing.T) {
	// Rows for a PNG predictor: a filter-type byte (0, none) then the samples.
	var predicted []byte
	for y := 0; y < 100; y++ {
		predicted = append(predicted, 0)
		predicted = append(predicted, bytes.Repeat([]byte{200, 100, 50}, 100)...)
	}

	tests := []struct {
		name     string
		objs     []string
		channels int
	}{
		{
			name: "gray",
			objs: []string{imageObject([2]string{
				"/Width 120 /Height 100 /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode",
				deflate(t, bytes.Repeat([]byte{'A'}, 120*100)),
			})},
			channels: 1,
		},
		{
			name: "rgb with png predictor and icc profile",
			objs: []string{
				"<< /N 3 /Length 4 >>\nstream\nicc0\nendstream",
				imageObject([2]string{
					"/Width 100 /Height 100 /ColorSpace [/ICCBased 4 0 R] /BitsPerComponent 8 /Filter /FlateDecode " +
						"/DecodeParms << /Predictor 15 /Colors 3 /BitsPerComponent 8 /Columns 100 >>",
					deflate(t, predicted),
				}),
			},
			channels: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When
			images, candidates, err := Images(buildPDFObjects(t, tt.objs))

			// Then: the stream was inflated and re-encoded as PNG
			require.NoError(t, err)
			assert.Equal(t, 1, candidates)
			require.Len(t, images, 1)
			assert.Equal(t, EncodingRaw, images[0].Encoding)

			img, err := png.Decode(bytes.NewReader(images[0].Data))
			require.NoError(t, err)
			assert.Equal(t, images[0].Width, img.Bounds().Dx())
			assert.Equal(t, 100, img.Bounds().Dy())
			if tt.channels == 3 {
				r, g, b, _ := img.At(10, 10).RGBA()
				assert.Equal(t, []uint32{200, 100, 50}, []uint32{r >> 8, g >> 8, b >> 8})
			}
		})
	}
}

func TestRecover_FlateImage(t *testing.T) {
	data := buildPDF(t, [][2]string{{
		"/Width 100 /Height 100 /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode",
		deflate(t, bytes.Repeat([]byte{0x40}, 100*100)),
	}})
	rec := &recordingRecognizer{text: "flate words"}

	text, err := Recover(context.Background(), data, rec, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "flate words", text)
	assert.Equal(t, []bool{true}, rec.pngOK)
}

func TestRecover_NoTextNamesCandidates(t *testing.T) {
	data := buildPDF(t, [][2]string{grayStream(100, 100), grayStream(150, 100)})
	rec := &recordingRecognizer{err: errors.New("engine failure")}

	_, err := Recover(context.Background(), data, rec, t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 candidate images")
}

func TestRecover_UnsupportedDepthSkipped(t *testing.T) {
	data := buildPDF(t, [][2]string{{
		"/Width 100 /Height 100 /ColorSpace /DeviceGray /BitsPerComponent 1",
		string(bytes.Repeat([]byte{0}, 100*100/8)),
	}})

	images, candidates, err := Images(data)

	require.NoError(t, err)
	assert.Equal(t, 1, candidates)
	assert.Empty(t, images)
}

func TestImages_NotAPDF(t *testing.T) {
	_, _, err := Images([]byte("plain text, not a pdf"))
	assert.Error(t, err)
}
