// Package store defines the persistence interfaces for the briefing pipeline
// and shared database plumbing (DBTX, sentinel errors, transactions). The
// Postgres implementations live in internal/platform/postgres.
package store
