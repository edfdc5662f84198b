// Package task contains the background workers that drive the briefing
// pipeline: the stage workers that lease and process jobs, the deadline
// reaper that retires jobs whose delivery window closed, and the purger
// that trims the expired content cache. Every worker is a plain Run(ctx)
// loop; shutdown is cooperative via context cancellation.
package task
