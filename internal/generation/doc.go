// Package generation defines the interfaces between the briefing pipeline and
// the external AI services that write scripts and synthesize audio. Concrete
// implementations live under internal/platform.
package generation
