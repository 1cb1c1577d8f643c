// Package dialect generates the SQL fragments the migration engine needs for
// each supported database family, and opens connections to them.
//
// The engine itself never builds SQL. Everything dialect-specific (schema and
// ledger DDL, ledger queries, allowed script extensions, the database/sql
// driver) lives behind the Dialect interface.
package dialect
