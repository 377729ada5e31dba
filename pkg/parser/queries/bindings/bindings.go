// Package bindings holds queries that collect every name a unit already
// uses, so freshly introduced bindings can avoid them.
package bindings

// JSQueries captures identifier-like names in JavaScript/JSX.
//
// Property names (obj.prop, { prop: v }) are not bindings and are not
// captured; shorthand properties ({ prop }) are, since they also reference
// a binding of that name.
const JSQueries = `
(identifier) @binding.name
(shorthand_property_identifier) @binding.name
(shorthand_property_identifier_pattern) @binding.name
`

// TSXQueries adds type names, which share the value namespace for imports.
const TSXQueries = JSQueries + `
(type_identifier) @binding.type
`
