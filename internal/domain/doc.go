// Package domain contains the core entities of the briefing pipeline: the Job
// and its status lifecycle, the immutable preferences snapshot, the shared
// content block cache entry and the append-only job log entry. All status
// transition rules live here so the lease manager and the completion protocol
// share a single source of truth.
package domain
