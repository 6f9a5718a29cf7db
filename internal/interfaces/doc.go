// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Storage Interfaces
//
//   - kvstore.Store: String key-value persistence (internal/kvstore/kvstore.go)
//   - settingsstore.Backend: Settings rows with deletion (internal/settingsstore/settingsstore.go)
//   - AnnotationStore / LegacyImporter: Bookmarks, highlights, notes (internal/http/stores.go)
//   - PreferenceStore / ExportSyncStore: Reader and export settings (internal/http/stores.go)
//
// ## Corpus Interfaces
//
//   - CorpusProvider: Per-language verse corpora (internal/http/stores.go)
//   - annotations.BookResolver: Book name to id mapping (internal/annotations/store.go)
//   - playback.Source / exporters.TextSource: Verse text lookups
//
// ## Speech Interfaces
//
//   - speech.Engine: Platform text-to-speech (internal/speech/engine.go)
//   - speech.Clock: Timer source, replaced by speechtest.Clock in tests
//   - playback.Speaker: The sequencer surface the chaining player drives
//   - playback.Queue: What plays next (internal/playback/queue.go)
//
// ## Background Work Interfaces
//
//   - scheduler.Runner / scheduler.ConfigSource: Periodic export
//   - http.TaskQueue: Background task enqueueing (internal/http/tasks.go)
//
// # Adding a New Speech Engine
//
//  1. Implement speech.Engine in internal/speech/
//
//     type PiperEngine struct {
//         model string
//     }
//
//     func (e *PiperEngine) Voices() ([]Voice, error)
//     func (e *PiperEngine) Speak(u Utterance) error
//     func (e *PiperEngine) Cancel()
//     func (e *PiperEngine) Pause()
//     func (e *PiperEngine) Resume()
//
//     var _ Engine = (*PiperEngine)(nil)
//
//  2. Add a config.SpeechEngine value and select it in entrypoint.go
//
// The engine must report the end of every utterance exactly once, through
// OnEnd or OnError, and report ErrInterrupted when Cancel cuts one short.
//
// # Adding a New Playback Mode
//
//  1. Implement playback.Queue in internal/playback/queue.go
//
//  2. Add a Mode constant and a Player method that calls Play(mode, queue)
//
//  3. Register the HTTP route in router.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
