package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/classwrap/pkg/classnames"
	"github.com/gnana997/classwrap/pkg/parser"
	"github.com/gnana997/classwrap/pkg/transform"
)

// transformResponse is the transform_code result.
type transformResponse struct {
	Code        string              `json:"code"`
	Changed     bool                `json:"changed"`
	Dialect     string              `json:"dialect"`
	Rewrites    []transform.Rewrite `json:"rewrites"`
	Imports     []importJSON        `json:"imports"`
	ParseErrors bool                `json:"parse_errors"`
}

// analyzeResponse is the analyze_code result.
type analyzeResponse struct {
	Dialect         string                 `json:"dialect"`
	Options         classnames.Options     `json:"options"`
	Rewrites        []transform.Rewrite    `json:"rewrites"`
	ImportsNeeded   []importJSON           `json:"imports_needed"`
	ExistingImports []transform.ImportDecl `json:"existing_imports"`
	ParseErrors     bool                   `json:"parse_errors"`
}

type importJSON struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// optionsResponse is the resolve_options result.
type optionsResponse struct {
	Options  classnames.Options `json:"options"`
	NameHint string             `json:"name_hint"`
	Shared   bool               `json:"shared"`
}

func (s *Server) handleTransformCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, _, errResult := s.run(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	return jsonResult(transformResponse{
		Code:        string(res.Code),
		Changed:     res.Changed,
		Dialect:     res.Dialect.String(),
		Rewrites:    nonNil(res.Rewrites),
		Imports:     importsJSON(res),
		ParseErrors: res.ParseErrors,
	})
}

func (s *Server) handleAnalyzeCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, cfg, errResult := s.run(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	return jsonResult(analyzeResponse{
		Dialect:         res.Dialect.String(),
		Options:         cfg.Options(),
		Rewrites:        nonNil(res.Rewrites),
		ImportsNeeded:   importsJSON(res),
		ExistingImports: nonNil(res.ExistingImports),
		ParseErrors:     res.ParseErrors,
	})
}

func (s *Server) handleResolveOptions(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := s.config(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(optionsResponse{
		Options:  cfg.Options(),
		NameHint: cfg.NameHint.String(),
		Shared:   cfg.NameHint.Shared(),
	})
}

// run transforms the request's code. Argument problems come back as a tool
// error result, not a protocol error.
func (s *Server) run(ctx context.Context, req mcp.CallToolRequest) (*transform.Result, classnames.Config, *mcp.CallToolResult) {
	code, err := req.RequireString("code")
	if err != nil {
		return nil, classnames.Config{}, mcp.NewToolResultError(err.Error())
	}

	path := req.GetString("path", "")
	dialect, err := requestDialect(req.GetString("dialect", ""), path)
	if err != nil {
		return nil, classnames.Config{}, mcp.NewToolResultError(err.Error())
	}

	cfg, err := s.config(req)
	if err != nil {
		return nil, classnames.Config{}, mcp.NewToolResultError(err.Error())
	}

	if path == "" {
		path = "input." + dialect.String()
	}
	res, err := s.host(cfg).TransformDialect(ctx, dialect, path, []byte(code))
	if err != nil {
		return nil, cfg, mcp.NewToolResultError(fmt.Sprintf("transform failed: %v", err))
	}
	return res, cfg, nil
}

// config overlays the request's options on the server defaults.
func (s *Server) config(req mcp.CallToolRequest) (classnames.Config, error) {
	merged := make(classnames.Options, len(s.defaults))
	for k, v := range s.defaults {
		merged[k] = v
	}

	if raw, ok := req.GetArguments()["options"]; ok && raw != nil {
		opts, ok := raw.(map[string]any)
		if !ok {
			return classnames.Config{}, fmt.Errorf("options must be an object, got %T", raw)
		}
		for k, v := range opts {
			merged[k] = v
		}
	}

	return classnames.Resolve(merged), nil
}

// requestDialect picks the dialect from the explicit argument, then the path
// extension, then falls back to JSX.
func requestDialect(name, path string) (parser.Dialect, error) {
	if name != "" {
		d := parser.ParseDialectString(name)
		if d == parser.DialectUnknown {
			return d, fmt.Errorf("unknown dialect %q (want jsx or tsx)", name)
		}
		return d, nil
	}
	if path != "" {
		if d := parser.DetectDialect(path); d != parser.DialectUnknown {
			return d, nil
		}
	}
	return parser.DialectJSX, nil
}

func importsJSON(res *transform.Result) []importJSON {
	out := make([]importJSON, len(res.Imports))
	for i, b := range res.Imports {
		out[i] = importJSON{Name: b.Name, Source: b.Source}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
