package parser

import (
	"path/filepath"
	"strings"
)

// Dialect is a source dialect that can contain JSX.
type Dialect int

const (
	// DialectJSX is JavaScript with JSX (.js, .jsx, .mjs, .cjs files)
	DialectJSX Dialect = iota
	// DialectTSX is TypeScript with JSX (.tsx files)
	DialectTSX
	// DialectUnknown is anything else, including plain .ts which cannot hold JSX
	DialectUnknown
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectJSX:
		return "jsx"
	case DialectTSX:
		return "tsx"
	default:
		return "unknown"
	}
}

// Extensions returns the file extensions handled by the dialect.
func (d Dialect) Extensions() []string {
	switch d {
	case DialectJSX:
		return []string{".js", ".jsx", ".mjs", ".cjs"}
	case DialectTSX:
		return []string{".tsx"}
	default:
		return nil
	}
}

// DetectDialect detects the dialect from a file path.
// Returns DialectUnknown if the file extension is not recognized.
func DetectDialect(filePath string) Dialect {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return DialectJSX
	case ".tsx":
		return DialectTSX
	default:
		return DialectUnknown
	}
}

// ParseDialectString converts a dialect or language name to a Dialect.
// Returns DialectUnknown if the string is not recognized.
func ParseDialectString(s string) Dialect {
	switch strings.ToLower(s) {
	case "jsx", "js", "javascript":
		return DialectJSX
	case "tsx", "ts", "typescript":
		return DialectTSX
	default:
		return DialectUnknown
	}
}

// SupportedDialects returns a list of all supported dialects.
func SupportedDialects() []Dialect {
	return []Dialect{
		DialectJSX,
		DialectTSX,
	}
}
