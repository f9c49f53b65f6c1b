package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Backends accepted by Config.Backend.
const (
	BackendAuto = "auto"
	BackendLib  = "lib"
	BackendCLI  = "cli"
)

// Config selects and configures an OCR backend.
type Config struct {
	// Backend is one of auto, lib or cli. Empty means auto.
	Backend  string
	Language string
	DataPath string
}

// Factory creates a fresh Engine.
type Factory func() (Engine, error)

// NewFactory returns a Factory for cfg.
//
// The auto backend tries libtesseract, then the tesseract CLI, and falls back
// to Unavailable when neither can be used. Explicit backends fail instead of
// falling back.
func NewFactory(cfg Config) Factory {
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}

	return func() (Engine, error) {
		switch strings.ToLower(cfg.Backend) {
		case BackendLib:
			lib, err := NewTesseractLib(lang, cfg.DataPath)
			if err != nil {
				return nil, err
			}
			return lib, nil
		case BackendCLI:
			cli, err := NewTesseractCLI(lang, cfg.DataPath)
			if err != nil {
				return nil, err
			}
			return cli, nil
		case "", BackendAuto:
			lib, libErr := NewTesseractLib(lang, cfg.DataPath)
			if libErr == nil {
				return lib, nil
			}
			cli, cliErr := NewTesseractCLI(lang, cfg.DataPath)
			if cliErr == nil {
				slog.Debug("ocr_backend_fallback", slog.String("backend", BackendCLI), slog.String("lib_error", libErr.Error()))
				return cli, nil
			}
			return Unavailable{Reason: fmt.Sprintf("%v; %v", libErr, cliErr)}, nil
		default:
			return nil, fmt.Errorf("unknown OCR backend %q (expected auto, lib or cli)", cfg.Backend)
		}
	}
}

// Handle lazily creates one Engine on first use and reuses it afterwards.
// A Handle belongs to a single worker and must not be shared.
type Handle struct {
	factory Factory
	engine  Engine
	initErr error
	started bool
}

// NewHandle returns a Handle that will build its engine with factory.
func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Recognize implements Engine. Initialization failures are remembered and
// returned on every later call.
func (h *Handle) Recognize(ctx context.Context, imagePath string) (string, error) {
	if !h.started {
		h.started = true
		if h.factory == nil {
			h.initErr = ErrUnavailable
		} else {
			h.engine, h.initErr = h.factory()
		}
		if h.initErr != nil {
			h.engine = nil
			h.initErr = fmt.Errorf("failed to initialize OCR: %w", h.initErr)
		}
	}
	if h.initErr != nil {
		return "", h.initErr
	}
	return h.engine.Recognize(ctx, imagePath)
}

// Initialized reports whether the engine has been created.
func (h *Handle) Initialized() bool {
	return h.engine != nil
}

// Close releases the engine, if one was created.
func (h *Handle) Close() error {
	if h.engine == nil {
		return nil
	}
	err := h.engine.Close()
	h.engine = nil
	return err
}
