// Package main implements the entry point for the DayStart API server, which
// schedules per-user daily audio briefings and drives them through the
// script and audio generation pipeline.
package main

import (
	"context"
	"log"
)

func main() {
	app, err := newApplication(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(context.Background()); err != nil {
		app.logger.Error("Server exited with error", "error", err)
		log.Fatalf("Server error: %v", err)
	}
}
