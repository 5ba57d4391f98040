// Package history persists a journal of download and compression jobs in
// SQLite so past runs can be listed with their outcome.
package history
