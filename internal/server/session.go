package server

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/playback"
)

// Session serializes access to the one shared [playback.Player].
type Session struct {
	mu     sync.Mutex
	player *playback.Player
}

// NewSession wraps player. When hub is non-nil every state change is broadcast to it.
func NewSession(player *playback.Player, hub *Hub) *Session {
	s := &Session{player: player}
	if hub != nil {
		player.Subscribe(func(state models.PlaybackState) {
			hub.Broadcast(newStateMessage(state))
		})
	}
	return s
}

// Do runs fn with exclusive access to the player and returns the resulting state.
func (s *Session) Do(fn func(p *playback.Player)) models.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn(s.player)
	}
	return s.player.State()
}

// State returns the current playback state.
func (s *Session) State() models.PlaybackState {
	return s.Do(nil)
}

// Run advances the playback position by tick on every tick until ctx is done.
func (s *Session) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			s.Do(func(p *playback.Player) { p.Advance(elapsed) })
		}
	}
}
