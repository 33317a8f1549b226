// Package querysql translates criteria trees into parameterized SQLite SQL.
//
// Translator implements criteria.Visitor. It is a reference backend: it
// covers every operator family and is exercised end to end by the store
// and harness packages.
//
// Storage conventions the SQL relies on:
//   - Times are TimeLayout text in UTC
//   - Array and JSON fields hold JSON text; set fields hold comma-separated text
//   - Pivot tables are joined under the alias <relation>_pivot
package querysql
