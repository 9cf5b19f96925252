package playback

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/models"
)

// LogBackend is a [Backend] that renders nothing and records each call in the log.
//
// It is used when no audio device is attached: the TUI and the HTTP session drive the position with
// [Player.Advance] from their own clock.
type LogBackend struct {
	logger *log.Logger
}

// NewLogBackend creates a [LogBackend] writing to logger.
func NewLogBackend(logger *log.Logger) *LogBackend {
	return &LogBackend{logger: logger.WithPrefix("backend")}
}

func (b *LogBackend) Load(t models.Track) error {
	b.logger.Info("load", "provider", t.Provider, "uri", t.URI)
	return nil
}

func (b *LogBackend) Play() error {
	b.logger.Debug("play")
	return nil
}

func (b *LogBackend) Pause() error {
	b.logger.Debug("pause")
	return nil
}

func (b *LogBackend) Seek(pos time.Duration) error {
	b.logger.Debug("seek", "position", pos)
	return nil
}

func (b *LogBackend) SetVolume(v float64) error {
	b.logger.Debug("volume", "level", v)
	return nil
}
