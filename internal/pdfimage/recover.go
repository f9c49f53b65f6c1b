// Package pdfimage recovers text from scanned PDFs.
//
// It walks the PDF's indirect-object table, keeps image XObjects large enough
// to hold text, rebuilds each one as a standalone image file and hands it to
// an OCR recognizer.
package pdfimage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// MinDimension is the smallest width or height worth running OCR on.
const MinDimension = 100

// maxDimension guards raster allocation against corrupt size entries.
const maxDimension = 30000

// Recognizer turns an image file into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Image is one materializable image stream.
type Image struct {
	ObjectNumber int
	Width        int
	Height       int
	Encoding     Encoding
	// Data holds the bytes to write to disk: JPEG/JPX containers verbatim,
	// PNG for raw rasters.
	Data []byte
}

var disableConfigDir sync.Once

// Images parses data and returns every image stream that can be turned into
// a standalone file, in object-number order. Candidates is the number of
// image streams passing the size filter, whether or not they were usable.
func Images(data []byte) (images []Image, candidates int, err error) {
	disableConfigDir.Do(api.DisableConfigDir)

	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, 0, fmt.Errorf("parse pdf: %w", err)
	}
	xt := ctx.XRefTable

	objNrs := make([]int, 0, len(xt.Table))
	for nr := range xt.Table {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	for _, nr := range objNrs {
		entry := xt.Table[nr]
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if st := sd.Dict.NameEntry("Subtype"); st == nil || *st != "Image" {
			continue
		}

		w, wok := intValue(xt, sd.Dict, "Width")
		h, hok := intValue(xt, sd.Dict, "Height")
		if !wok || !hok || w < MinDimension || h < MinDimension {
			continue
		}
		candidates++

		img, err := materialize(xt, sd, data, w, h)
		if err != nil {
			slog.Debug("pdf_image_skipped", slog.Int("object", nr), slog.String("error", err.Error()))
			continue
		}
		img.ObjectNumber = nr
		images = append(images, img)
	}
	return images, candidates, nil
}

// Recover extracts images from data, writes each to a temporary file under
// workDir, and OCRs them. Recovered blocks are joined with blank lines.
// An empty workDir uses the system temp directory.
func Recover(ctx context.Context, data []byte, rec Recognizer, workDir string) (string, error) {
	images, candidates, err := Images(data)
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp(workDir, "argus-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	var blocks []string
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path := filepath.Join(dir, fmt.Sprintf("obj%d%s", img.ObjectNumber, img.Encoding.Extension()))
		if err := os.WriteFile(path, img.Data, 0o600); err != nil {
			return "", fmt.Errorf("write temp image: %w", err)
		}

		text, err := rec.Recognize(ctx, path)
		if err != nil {
			slog.Debug("pdf_image_ocr_failed", slog.Int("object", img.ObjectNumber), slog.String("error", err.Error()))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			blocks = append(blocks, text)
		}
	}

	if len(blocks) == 0 {
		return "", fmt.Errorf("no text recovered from %d candidate images", candidates)
	}
	return strings.Join(blocks, "\n\n"), nil
}

func materialize(xt *model.XRefTable, sd types.StreamDict, data []byte, w, h int) (Image, error) {
	img := Image{Width: w, Height: h}

	raw, err := streamBytes(xt, sd, data)
	if err != nil {
		return img, err
	}

	names := make([]string, len(sd.FilterPipeline))
	for i, f := range sd.FilterPipeline {
		names[i] = f.Name
	}
	img.Encoding = Classify(names)
	if img.Encoding == EncodingUnsupported {
		return img, fmt.Errorf("unsupported filter chain %v", names)
	}

	// Undo leading Flate stages; the final stage is handled per encoding.
	stages := sd.FilterPipeline
	if img.Encoding != EncodingRaw && len(stages) > 0 {
		stages = stages[:len(stages)-1]
	}
	for _, f := range stages {
		if raw, err = inflate(raw, f.DecodeParms); err != nil {
			return img, err
		}
	}

	if img.Encoding != EncodingRaw {
		img.Data = raw
		return img, nil
	}

	if w > maxDimension || h > maxDimension {
		return img, fmt.Errorf("image too large: %dx%d", w, h)
	}
	bpc, ok := intValue(xt, sd.Dict, "BitsPerComponent")
	if !ok || bpc != 8 {
		return img, fmt.Errorf("unsupported bits per component %d", bpc)
	}
	channels := Channels(colorSpaceFamily(xt, sd.Dict))
	img.Data, err = EncodePNG(raw, w, h, channels)
	return img, err
}

// streamBytes returns the encoded stream content, reading it from the file
// buffer when the parser did not load it.
func streamBytes(xt *model.XRefTable, sd types.StreamDict, data []byte) ([]byte, error) {
	if len(sd.Raw) > 0 {
		return sd.Raw, nil
	}

	var length int64 = -1
	if sd.StreamLength != nil {
		length = *sd.StreamLength
	} else if sd.StreamLengthObjNr != nil {
		if o, err := xt.Dereference(*types.NewIndirectRef(*sd.StreamLengthObjNr, 0)); err == nil {
			if n, ok := o.(types.Integer); ok {
				length = int64(n)
			}
		}
	}

	start := sd.StreamOffset
	if start <= 0 || length < 0 || start+length > int64(len(data)) {
		return nil, fmt.Errorf("stream content unavailable")
	}
	return data[start : start+length], nil
}

func inflate(raw []byte, decodeParms types.Dict) ([]byte, error) {
	var parms map[string]int
	if decodeParms != nil {
		parms = map[string]int{}
		for _, key := range []string{"Predictor", "Colors", "BitsPerComponent", "Columns"} {
			if v := decodeParms.IntEntry(key); v != nil {
				parms[key] = *v
			}
		}
	}

	f, err := filter.NewFilter(filter.Flate, parms)
	if err != nil {
		return nil, err
	}
	r, err := f.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("flate decode: %w", err)
	}
	return io.ReadAll(r)
}

func intValue(xt *model.XRefTable, d types.Dict, key string) (int, bool) {
	o, found := d.Find(key)
	if !found {
		return 0, false
	}
	o, err := xt.Dereference(o)
	if err != nil || o == nil {
		return 0, false
	}
	switch v := o.(type) {
	case types.Integer:
		return int(v), true
	case types.Float:
		return int(v), true
	}
	return 0, false
}

// colorSpaceFamily resolves the ColorSpace entry to its family name, e.g.
// DeviceRGB or the first element of [/ICCBased 12 0 R].
func colorSpaceFamily(xt *model.XRefTable, d types.Dict) string {
	o, found := d.Find("ColorSpace")
	if !found {
		return ""
	}
	o, err := xt.Dereference(o)
	if err != nil {
		return ""
	}
	switch v := o.(type) {
	case types.Name:
		return string(v)
	case types.Array:
		if len(v) == 0 {
			return ""
		}
		first, err := xt.Dereference(v[0])
		if err != nil {
			return ""
		}
		if name, ok := first.(types.Name); ok {
			return string(name)
		}
	}
	return ""
}
