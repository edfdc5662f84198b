// Package gemini implements the generation interfaces against Google's
// Gemini API: script writing via a text model and audio synthesis via a TTS
// model. Both are opaque lease holders from the pipeline's point of view.
package gemini
