package playback

import (
	"math"
	"time"

	"github.com/desertthunder/mixdeck/internal/models"
)

// Seeker is the part of [Player] the [SeekController] drives.
type Seeker interface {
	State() models.PlaybackState
	Seek(pos time.Duration)
}

// Bounds is the horizontal geometry of a progress bar, captured when a drag starts.
type Bounds struct {
	Left  float64
	Width float64
}

// SeekController maps pointer gestures on a progress bar to seeks.
type SeekController struct {
	seeker     Seeker
	previewing bool
	bounds     Bounds
	duration   time.Duration
	candidate  time.Duration
}

// NewSeekController creates a controller for seeker.
func NewSeekController(seeker Seeker) *SeekController {
	return &SeekController{seeker: seeker}
}

// Previewing reports whether a drag is in progress.
func (c *SeekController) Previewing() bool {
	return c.previewing
}

// PointerDown starts a drag at x. It returns false and does nothing when no track with a known length is loaded or
// the bar has no width.
func (c *SeekController) PointerDown(x float64, b Bounds) bool {
	duration := c.seeker.State().Duration()
	if duration <= 0 || b.Width <= 0 {
		return false
	}

	c.previewing = true
	c.bounds = b
	c.duration = duration
	c.update(x)
	return true
}

// PointerMove updates the preview position while dragging.
func (c *SeekController) PointerMove(x float64) {
	if !c.previewing {
		return
	}
	c.update(x)
}

// PointerUp ends the drag and commits the preview with a single seek.
func (c *SeekController) PointerUp() {
	if !c.previewing {
		return
	}
	c.previewing = false
	c.seeker.Seek(c.candidate)
	c.candidate = 0
}

// Cancel ends the drag without seeking.
func (c *SeekController) Cancel() {
	c.previewing = false
	c.candidate = 0
}

// Displayed is the position the progress bar should show: the preview during a drag, the live position otherwise.
func (c *SeekController) Displayed() time.Duration {
	if c.previewing {
		return c.candidate
	}
	return c.seeker.State().CurrentPosition
}

// Fraction is [SeekController.Displayed] as a share of the track length, in [0, 1].
func (c *SeekController) Fraction() float64 {
	duration := c.duration
	if !c.previewing {
		duration = c.seeker.State().Duration()
	}
	if duration <= 0 {
		return 0
	}
	return clampFloat(float64(c.Displayed())/float64(duration), 0, 1)
}

func (c *SeekController) update(x float64) {
	progress := clampFloat((x-c.bounds.Left)/c.bounds.Width, 0, 1)
	c.candidate = time.Duration(math.Round(progress * float64(c.duration)))
}

func clampFloat(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
