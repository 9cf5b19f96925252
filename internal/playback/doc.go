// Package playback implements the player's queue and transport state machine and the seek controller that sits
// between a draggable progress bar and the player.
//
// # Player
//
// [Player] owns the ordered queue, the current index, the play position and the play/pause flag.
// It moves between three states:
//
//	Idle    no track loaded (empty queue or nothing selected)
//	Paused  a track is loaded and the position is frozen
//	Playing a track is loaded and [Player.Advance] moves the position forward
//
// Only [Player.LoadTrack] and [Player.PlayAt] leave Idle. Transitions that are not valid in the current state are
// ignored rather than reported: pressing play with nothing loaded does nothing.
//
// Whenever the current track changes the position resets to zero and the [Backend] is asked to load the new source.
// The backend is whatever actually renders audio; this package only drives it.
//
// Queue boundaries stop rather than wrap: [Player.Next] on the last track and [Player.Previous] on the first are
// no-ops.
//
// # Seek controller
//
// [SeekController] turns pointer down/move/up on a progress bar into a single seek. While the pointer is held it
// shows a preview position computed from the pointer and ignores live position updates, so the bar does not jump
// back and forth during a drag. Releasing the pointer commits the preview with one [Player.Seek].
//
// A [Player] is not safe for concurrent use. Callers that share one across goroutines must serialize access.
package playback
