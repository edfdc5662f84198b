// Package service implements the application's use cases on top of the store
// interfaces: creating and resetting briefing jobs, reading their status, and
// maintaining the shared content cache. Services validate input and coordinate
// stores; they never issue SQL themselves.
package service
