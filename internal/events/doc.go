// Package events provides a minimal in-process event mechanism that lets the
// job service announce new work to the stage workers without depending on the
// task package.
package events
