// Package output renders storekeep-cli results as a table, JSON or YAML.
//
// Tables are derived from structs (one row per field), slices of structs
// (one row per element, headers from json tags) and maps (one row per key,
// sorted). Nested records are shown inline as compact JSON.
package output
