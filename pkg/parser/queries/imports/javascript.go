package imports

// JSQueries matches import declarations in JavaScript/JSX.
//
// Captures:
//   - @import.statement - the whole import_statement
//   - @import.source - the quoted module specifier
//
// Default, named and namespace bindings are read from the statement's
// import_clause by the caller; a query per binding form would report one
// statement several times.
const JSQueries = `
(import_statement
  source: (string) @import.source
) @import.statement
`

// TSXQueries matches import declarations in TSX. The TypeScript grammar
// shares the JavaScript import_statement shape; "import type" statements
// carry an extra anonymous "type" token and are matched too.
const TSXQueries = JSQueries
