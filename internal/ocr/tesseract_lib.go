//go:build darwin || linux

package ocr

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	tesseractLibs = map[string][]string{
		"darwin": {
			"/opt/homebrew/lib/libtesseract.dylib",
			"/usr/local/lib/libtesseract.dylib",
			"libtesseract.dylib",
		},
		"linux": {"libtesseract.so.5", "libtesseract.so.4", "libtesseract.so"},
	}
	leptonicaLibs = map[string][]string{
		"darwin": {
			"/opt/homebrew/lib/libleptonica.dylib",
			"/usr/local/lib/libleptonica.dylib",
			"libleptonica.dylib",
		},
		"linux": {"libleptonica.so.6", "liblept.so.5", "libleptonica.so", "liblept.so"},
	}
)

// tessAPI holds the C entry points, registered once per process.
type tessAPI struct {
	create      func() uintptr
	init3       func(api uintptr, datapath, language *byte) int32
	setImage2   func(api uintptr, pix uintptr)
	getUTF8Text func(api uintptr) uintptr
	deleteText  func(text uintptr)
	clear       func(api uintptr)
	end         func(api uintptr)
	deleteAPI   func(api uintptr)

	pixRead    func(filename *byte) uintptr
	pixDestroy func(pix *uintptr)
}

var (
	loadOnce sync.Once
	loaded   *tessAPI
	loadErr  error
)

func loadTesseract() (*tessAPI, error) {
	loadOnce.Do(func() {
		lept, err := dlopenFirst(leptonicaLibs[runtime.GOOS])
		if err != nil {
			loadErr = fmt.Errorf("load leptonica: %w", err)
			return
		}
		tess, err := dlopenFirst(tesseractLibs[runtime.GOOS])
		if err != nil {
			loadErr = fmt.Errorf("load tesseract: %w", err)
			return
		}

		api := &tessAPI{}
		purego.RegisterLibFunc(&api.create, tess, "TessBaseAPICreate")
		purego.RegisterLibFunc(&api.init3, tess, "TessBaseAPIInit3")
		purego.RegisterLibFunc(&api.setImage2, tess, "TessBaseAPISetImage2")
		purego.RegisterLibFunc(&api.getUTF8Text, tess, "TessBaseAPIGetUTF8Text")
		purego.RegisterLibFunc(&api.deleteText, tess, "TessDeleteText")
		purego.RegisterLibFunc(&api.clear, tess, "TessBaseAPIClear")
		purego.RegisterLibFunc(&api.end, tess, "TessBaseAPIEnd")
		purego.RegisterLibFunc(&api.deleteAPI, tess, "TessBaseAPIDelete")
		purego.RegisterLibFunc(&api.pixRead, lept, "pixRead")
		purego.RegisterLibFunc(&api.pixDestroy, lept, "pixDestroy")
		loaded = api
	})
	return loaded, loadErr
}

func dlopenFirst(candidates []string) (uintptr, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	var lastErr error
	for _, name := range candidates {
		lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// TesseractLib is an Engine backed by libtesseract loaded at runtime.
type TesseractLib struct {
	api    *tessAPI
	handle uintptr
}

// NewTesseractLib loads libtesseract and initializes one recognizer for
// language. An empty dataPath uses the library's default tessdata location.
func NewTesseractLib(language, dataPath string) (*TesseractLib, error) {
	api, err := loadTesseract()
	if err != nil {
		return nil, err
	}

	handle := api.create()
	if handle == 0 {
		return nil, fmt.Errorf("TessBaseAPICreate returned null")
	}

	lang := cString(language)
	var dp *byte
	if dataPath != "" {
		dp = cString(dataPath)
	}
	rc := api.init3(handle, dp, lang)
	runtime.KeepAlive(lang)
	runtime.KeepAlive(dp)
	if rc != 0 {
		api.deleteAPI(handle)
		return nil, fmt.Errorf("initialize tesseract for %q: code %d", language, rc)
	}

	return &TesseractLib{api: api, handle: handle}, nil
}

// Recognize implements Engine.
func (t *TesseractLib) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.handle == 0 {
		return "", fmt.Errorf("tesseract engine closed")
	}

	name := cString(imagePath)
	pix := t.api.pixRead(name)
	runtime.KeepAlive(name)
	if pix == 0 {
		return "", fmt.Errorf("load image for OCR: %s", imagePath)
	}
	defer t.api.pixDestroy(&pix)

	t.api.setImage2(t.handle, pix)
	defer t.api.clear(t.handle)

	text := t.api.getUTF8Text(t.handle)
	if text == 0 {
		return "", fmt.Errorf("OCR extraction failed: %s", imagePath)
	}
	defer t.api.deleteText(text)

	return Clean(goString(text)), nil
}

// Close releases the recognizer. It is safe to call more than once.
func (t *TesseractLib) Close() error {
	if t.handle != 0 {
		t.api.end(t.handle)
		t.api.deleteAPI(t.handle)
		t.handle = 0
	}
	return nil
}

func cString(s string) *byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

// goString copies a NUL-terminated C string owned by the library.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	ptr := *(*unsafe.Pointer)(unsafe.Pointer(&p))
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}
