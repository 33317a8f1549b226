// Package store executes criteria against SQLite.
//
// A Store owns one database whose tables are derived from a schema
// registry: one table per schema with a column per field, plus a two-column
// table for every pivot relation. Columns are declared without a type, so
// values keep the storage class they were bound with.
//
// # Value Storage
//
//   - Strings, integers, floats and booleans bind natively (booleans as 0/1)
//   - Times are querysql.TimeLayout text in UTC and read back as ir.IRTime
//   - Arrays and objects are JSON text and read back as ir.IRArray / ir.IRObject
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - case_sensitive_like=ON: LIKE matches case, ILIKE lowers both sides
//   - regexp(pattern, value): backs the REGEXP operator
//
// All queries come from querysql.Translator, so every result set is ordered
// deterministically.
package store
