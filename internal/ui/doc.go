// Package ui implements a terminal progress view for migration stages using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [RunningView] : spinner, progress bar and the latest status messages while a [Job] runs
//  2. [ResultView] : done/failed counts and a browsable list of failed items
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the migration engine, providing non-blocking status reporting during uploads.
//
// Keyboard navigation uses vim-style bindings (j/k, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
