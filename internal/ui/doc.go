// Package ui implements the interactive terminal player using bubbletea's Elm architecture.
//
// The screen is split into a fixed player header and a switchable pane:
//  1. [ResultsPane] : search results for the selected provider
//  2. [QueuePane] : the play queue, with the current entry marked
//  3. [FavoritesPane] : stored favorites for the selected provider
//
// The header's progress bar accepts mouse drags. While the button is held the bar previews the drag position through
// a [playback.SeekController] and a single seek is issued on release. A tick command advances the [playback.Player]
// clock while playing.
//
// Search, favorite toggles and browser launches run as commands and report back through the Msg union type. The
// player itself is only touched from Update.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
