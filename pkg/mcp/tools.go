package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool names.
const (
	ToolTransformCode  = "transform_code"
	ToolAnalyzeCode    = "analyze_code"
	ToolResolveOptions = "resolve_options"
)

const optionsDescription = "Plugin options overriding the server defaults key by key: " +
	"attributeNames (string[]), nameHint (string, or false to import once per attribute), " +
	"ignoreMemberExpression (bool), ignoreIdentifier (bool)"

func transformCodeTool() mcp.Tool {
	return mcp.NewTool(ToolTransformCode,
		mcp.WithDescription("Wrap dynamic class-name attribute values in a classnames call and add the import. Returns the rewritten source and what changed."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source of one module")),
		mcp.WithString("dialect", mcp.Description("jsx or tsx; detected from path when omitted, default jsx"), mcp.Enum("jsx", "tsx")),
		mcp.WithString("path", mcp.Description("File name used for dialect detection and messages")),
		mcp.WithObject("options", mcp.Description(optionsDescription)),
	)
}

func analyzeCodeTool() mcp.Tool {
	return mcp.NewTool(ToolAnalyzeCode,
		mcp.WithDescription("Report which attributes would be rewritten and which imports exist, without returning code."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source of one module")),
		mcp.WithString("dialect", mcp.Description("jsx or tsx; detected from path when omitted, default jsx"), mcp.Enum("jsx", "tsx")),
		mcp.WithString("path", mcp.Description("File name used for dialect detection and messages")),
		mcp.WithObject("options", mcp.Description(optionsDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func resolveOptionsTool() mcp.Tool {
	return mcp.NewTool(ToolResolveOptions,
		mcp.WithDescription("Show the effective configuration for a set of options after defaults and coercion."),
		mcp.WithObject("options", mcp.Description(optionsDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// ToolDefinition names an MCP tool exposed by the server.
type ToolDefinition struct {
	Name        string
	Description string
}

// RegisteredTools returns the tools the server registers.
func RegisteredTools() []ToolDefinition {
	tools := []mcp.Tool{transformCodeTool(), analyzeCodeTool(), resolveOptionsTool()}
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = ToolDefinition{Name: t.Name, Description: t.Description}
	}
	return defs
}
