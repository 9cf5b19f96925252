package playback

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// countingSeeker wraps a [Player] and records the seeks issued through it.
type countingSeeker struct {
	*Player
	seeks []time.Duration
}

func (s *countingSeeker) Seek(pos time.Duration) {
	s.seeks = append(s.seeks, pos)
	s.Player.Seek(pos)
}

func newSeekFixture(t *testing.T, seconds int) (*SeekController, *countingSeeker) {
	t.Helper()
	player := NewPlayer(&recordingBackend{}, log.New(io.Discard))
	if seconds > 0 {
		player.LoadTrack(track("a", seconds))
	}
	seeker := &countingSeeker{Player: player}
	return NewSeekController(seeker), seeker
}

func TestSeekController(t *testing.T) {
	bounds := Bounds{Left: 10, Width: 100}

	t.Run("drag to half on a 200 second track", func(t *testing.T) {
		c, seeker := newSeekFixture(t, 200)
		seeker.Play()
		seeker.Advance(30 * time.Second)

		if !c.PointerDown(10, bounds) {
			t.Fatal("expected pointer down to start a drag")
		}

		var shown []time.Duration
		for _, x := range []float64{20, 35, 50, 60} {
			c.PointerMove(x)
			seeker.Advance(time.Second)
			shown = append(shown, c.Displayed())
		}

		want := []time.Duration{20 * time.Second, 50 * time.Second, 80 * time.Second, 100 * time.Second}
		for i := range want {
			if shown[i] != want[i] {
				t.Errorf("step %d: displayed %v, want %v (live position leaked into preview)", i, shown[i], want[i])
			}
		}

		c.PointerUp()

		if len(seeker.seeks) != 1 {
			t.Fatalf("expected exactly one seek, got %v", seeker.seeks)
		}
		if seeker.seeks[0] != 100*time.Second {
			t.Errorf("expected seek(100s), got %v", seeker.seeks[0])
		}
		if c.Previewing() {
			t.Error("expected previewing to end on pointer up")
		}
		if c.Displayed() != 100*time.Second {
			t.Errorf("expected display to mirror the live position after release, got %v", c.Displayed())
		}
	})

	t.Run("mirrors live position when not dragging", func(t *testing.T) {
		c, seeker := newSeekFixture(t, 200)
		seeker.Play()
		seeker.Advance(12 * time.Second)
		if c.Displayed() != 12*time.Second {
			t.Errorf("expected 12s, got %v", c.Displayed())
		}
		if f := c.Fraction(); f != 0.06 {
			t.Errorf("expected fraction 0.06, got %v", f)
		}
	})

	t.Run("pointer outside the bar clamps", func(t *testing.T) {
		c, seeker := newSeekFixture(t, 200)
		c.PointerDown(-500, bounds)
		if c.Displayed() != 0 {
			t.Errorf("expected 0, got %v", c.Displayed())
		}
		c.PointerMove(5000)
		if c.Displayed() != 200*time.Second {
			t.Errorf("expected 200s, got %v", c.Displayed())
		}
		if c.Fraction() != 1 {
			t.Errorf("expected fraction 1, got %v", c.Fraction())
		}
		c.PointerUp()
		if seeker.State().CurrentPosition != 200*time.Second {
			t.Errorf("expected player at 200s, got %v", seeker.State().CurrentPosition)
		}
	})

	t.Run("no track makes pointer down a no-op", func(t *testing.T) {
		c, seeker := newSeekFixture(t, 0)
		if c.PointerDown(50, bounds) {
			t.Error("expected pointer down to be ignored")
		}
		c.PointerMove(60)
		c.PointerUp()
		if c.Previewing() || len(seeker.seeks) != 0 {
			t.Errorf("expected no drag and no seeks, got %v", seeker.seeks)
		}
		if c.Fraction() != 0 {
			t.Errorf("expected fraction 0, got %v", c.Fraction())
		}
	})

	t.Run("zero width bar is ignored", func(t *testing.T) {
		c, _ := newSeekFixture(t, 200)
		if c.PointerDown(50, Bounds{Left: 0, Width: 0}) {
			t.Error("expected pointer down to be ignored")
		}
	})

	t.Run("cancel does not seek", func(t *testing.T) {
		c, seeker := newSeekFixture(t, 200)
		c.PointerDown(60, bounds)
		c.Cancel()
		c.PointerUp()
		if len(seeker.seeks) != 0 {
			t.Errorf("expected no seeks, got %v", seeker.seeks)
		}
	})

	t.Run("move and up without down are ignored", func(t *testing.T) {
		c, seeker := newSeekFixture(t, 200)
		c.PointerMove(50)
		c.PointerUp()
		if len(seeker.seeks) != 0 {
			t.Errorf("expected no seeks, got %v", seeker.seeks)
		}
	})
}

var _ Seeker = (*Player)(nil)
var _ Seeker = (*countingSeeker)(nil)
