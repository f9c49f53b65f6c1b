package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/argus/internal/config"
	"github.com/Aman-CERP/argus/internal/history"
	"github.com/Aman-CERP/argus/internal/ocr"
	"github.com/Aman-CERP/argus/internal/output"
	"github.com/Aman-CERP/argus/internal/search"
	"github.com/Aman-CERP/argus/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "Argus"

// Limit bounds for the search tool.
const (
	minLimit = 1
	maxLimit = 100
)

// Server is the MCP server for Argus. Every tool call runs an independent
// search rooted under rootPath.
type Server struct {
	mcp      *mcp.Server
	config   *config.Config
	rootPath string
	history  *history.Store
	logger   *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option configures a Server.
type Option func(*Server)

// WithHistory records every search tool call in store.
func WithHistory(store *history.Store) Option {
	return func(s *Server) { s.history = store }
}

// NewServer creates a new MCP server rooted at rootPath.
func NewServer(cfg *config.Config, rootPath string, opts ...Option) (*Server, error) {
	if rootPath == "" {
		return nil, errors.New("root path is required")
	}
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		config:   cfg,
		rootPath: abs,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// RootPath returns the absolute directory searches are confined to.
func (s *Server) RootPath() string {
	return s.rootPath
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "search",
			Description: "Search text, code, PDF, DOCX and (with ocr) image files under the server root for a literal or regular-expression pattern. Returns matching files ranked by relevance with the matching lines.",
		},
		{
			Name:        "cache_info",
			Description: "Describe the content cache of a search root: format version, timestamps, entry counts per category and file size.",
		},
	}
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search":
		return s.handleSearch(ctx, searchInputFromArgs(args))
	case "cache_info":
		return s.handleCacheInfo(ctx, CacheInfoInput{
			Directory: stringArg(args, "directory"),
			IndexFile: stringArg(args, "index_file"),
		})
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func (s *Server) registerTools() {
	tools := s.ListTools()

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpCacheInfoHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	out, err := s.handleSearch(ctx, input)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatSearchResults(*out)}},
	}, *out, nil
}

func (s *Server) mcpCacheInfoHandler(ctx context.Context, _ *mcp.CallToolRequest, input CacheInfoInput) (
	*mcp.CallToolResult,
	CacheInfoOutput,
	error,
) {
	out, err := s.handleCacheInfo(ctx, input)
	if err != nil {
		return nil, CacheInfoOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatCacheInfo(*out)}},
	}, *out, nil
}

// handleSearch runs one search. Pattern and directory problems come back as
// MCP errors; per-file failures only show up in the skipped count.
func (s *Server) handleSearch(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	if strings.TrimSpace(input.Pattern) == "" {
		return nil, NewInvalidParamsError("pattern parameter is required and must be non-empty")
	}
	dir, err := s.resolveDir(input.Directory)
	if err != nil {
		return nil, err
	}

	sc := s.config.SearchFor(dir, input.Pattern)
	sc.UseRegex = sc.UseRegex || input.Regex
	sc.CaseSensitive = sc.CaseSensitive || input.CaseSensitive
	sc.OCR = sc.OCR || input.OCR
	sc.Limit = clampLimit(input.Limit, s.config.Search.Limit, minLimit, maxLimit)
	if input.MaxDepth > 0 {
		sc.MaxDepth = input.MaxDepth
	}
	if len(input.Extensions) > 0 {
		sc.Extensions = input.Extensions
	}
	cc := s.config.CacheSettings()
	cc.UseCache = cc.UseCache || input.UseCache
	cc.SaveCache = cc.SaveCache || input.SaveCache

	s.logger.Info("mcp_search_started",
		slog.String("request_id", requestID),
		slog.String("pattern", input.Pattern),
		slog.String("directory", dir),
		slog.Int("limit", sc.Limit))

	engine, err := search.NewEngine(sc, cc, search.WithOCRFactory(ocr.NewFactory(s.config.OCRSettings())))
	if err != nil {
		return nil, MapError(err)
	}
	report, err := engine.Run(ctx)
	if err != nil {
		s.logger.Error("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	out := &SearchOutput{
		Pattern:   input.Pattern,
		Directory: engine.Root(),
		Results:   make([]SearchResultOutput, 0, len(report.Results)),
		Stats:     toStatsOutput(report.Stats),
	}
	for _, r := range report.Results {
		out.Results = append(out.Results, toResultOutput(r))
	}

	s.recordRun(ctx, sc, engine, report, start)

	s.logger.Info("mcp_search_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(out.Results)))
	return out, nil
}

func (s *Server) handleCacheInfo(_ context.Context, input CacheInfoInput) (*CacheInfoOutput, error) {
	path := input.IndexFile
	if path == "" {
		dir, err := s.resolveDir(input.Directory)
		if err != nil {
			return nil, err
		}
		path = s.config.CacheSettings().Path(dir)
	} else {
		var err error
		if path, err = s.confine(path, "index_file"); err != nil {
			return nil, err
		}
	}

	info, err := output.LoadCacheInfo(path)
	if err != nil {
		return nil, MapError(err)
	}
	out := toCacheInfoOutput(info)
	return &out, nil
}

func (s *Server) recordRun(ctx context.Context, sc search.SearchConfig, engine *search.Engine, report search.Report, start time.Time) {
	if s.history == nil {
		return
	}
	run := history.NewRun(sc.Pattern, engine.Root(), start, report.Stats)
	run.Regex = sc.UseRegex
	run.CaseSensitive = sc.CaseSensitive
	run.OCR = sc.OCR
	run.CacheState = report.CacheState.String()
	if err := s.history.Record(ctx, run); err != nil {
		s.logger.Warn("history_record_failed", slog.String("error", err.Error()))
	}
}

// resolveDir maps a tool directory argument to an absolute path under the
// server root. Paths escaping the root are rejected.
func (s *Server) resolveDir(dir string) (string, error) {
	if dir == "" {
		return s.rootPath, nil
	}
	return s.confine(dir, "directory")
}

// confine resolves p against the server root and rejects anything outside it.
func (s *Server) confine(p, arg string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.rootPath, p)
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(s.rootPath, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", NewInvalidParamsError(fmt.Sprintf("%s %q is outside the server root", arg, p))
	}
	return abs, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting",
		slog.String("transport", transport),
		slog.String("root", s.rootPath))

	switch transport {
	case "", "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped_with_error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// clampLimit applies the default for non-positive values and keeps the
// result within [lo, hi].
func clampLimit(limit, def, lo, hi int) int {
	if limit <= 0 {
		limit = def
	}
	return min(max(limit, lo), hi)
}

func searchInputFromArgs(args map[string]any) SearchInput {
	in := SearchInput{
		Pattern:       stringArg(args, "pattern"),
		Directory:     stringArg(args, "directory"),
		Regex:         boolArg(args, "regex"),
		CaseSensitive: boolArg(args, "case_sensitive"),
		OCR:           boolArg(args, "ocr"),
		Limit:         intArg(args, "limit"),
		MaxDepth:      intArg(args, "max_depth"),
		UseCache:      boolArg(args, "use_cache"),
		SaveCache:     boolArg(args, "save_cache"),
	}
	if exts, ok := args["extensions"].([]any); ok {
		for _, e := range exts {
			if str, ok := e.(string); ok {
				in.Extensions = append(in.Extensions, str)
			}
		}
	}
	return in
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// intArg accepts JSON numbers (float64) and ints.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
