package playback

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/models"
)

// Status is the coarse state of a [Player].
type Status int

const (
	Idle Status = iota
	Paused
	Playing
)

func (s Status) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// Backend renders audio for the player. Errors are logged by the player and never change its state.
type Backend interface {
	Load(track models.Track) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
	SetVolume(volume float64) error
}

// DefaultVolume is the volume a new [Player] starts at.
const DefaultVolume = 0.5

// Player is the playback and queue state machine.
type Player struct {
	backend   Backend
	logger    *log.Logger
	queue     []models.Track
	index     int
	position  time.Duration
	playing   bool
	volume    float64
	observers map[int]func(models.PlaybackState)
	nextObs   int
}

// NewPlayer creates an idle [Player] driving backend.
//
// A nil backend is replaced with a [LogBackend] writing to logger.
func NewPlayer(backend Backend, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	if backend == nil {
		backend = NewLogBackend(logger)
	}
	return &Player{
		backend:   backend,
		logger:    logger,
		index:     -1,
		volume:    DefaultVolume,
		observers: make(map[int]func(models.PlaybackState)),
	}
}

// Status reports whether the player is idle, paused or playing.
func (p *Player) Status() Status {
	switch {
	case p.current() == nil:
		return Idle
	case p.playing:
		return Playing
	default:
		return Paused
	}
}

// State returns a snapshot of the player. The returned track is a copy.
func (p *Player) State() models.PlaybackState {
	state := models.PlaybackState{
		CurrentPosition: p.position,
		IsPlaying:       p.playing,
		Volume:          p.volume,
		QueueIndex:      p.index,
		QueueLength:     len(p.queue),
	}
	if cur := p.current(); cur != nil {
		track := *cur
		state.CurrentTrack = &track
	}
	return state
}

// Subscribe registers fn to receive a snapshot after every state change and returns a function that removes it.
func (p *Player) Subscribe(fn func(models.PlaybackState)) (unsubscribe func()) {
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	return func() { delete(p.observers, id) }
}

// LoadTrack makes t the current track, paused at position zero.
//
// If t is already queued that entry is replaced by t and becomes current, otherwise t is appended first.
func (p *Player) LoadTrack(t models.Track) {
	idx := p.indexOf(t.Key())
	if idx < 0 {
		p.queue = append(p.queue, t)
		idx = len(p.queue) - 1
	} else {
		p.queue[idx] = t
	}
	p.playing = false
	p.load(idx)
	p.notify()
}

// Play starts playback of the loaded track. It does nothing when idle or already playing.
func (p *Player) Play() {
	if p.Status() != Paused {
		return
	}
	p.playing = true
	p.call("play", p.backend.Play())
	p.notify()
}

// Pause freezes playback. It does nothing unless playing.
func (p *Player) Pause() {
	if p.Status() != Playing {
		return
	}
	p.playing = false
	p.call("pause", p.backend.Pause())
	p.notify()
}

// TogglePlayPause plays when paused and pauses when playing.
func (p *Player) TogglePlayPause() {
	switch p.Status() {
	case Playing:
		p.Pause()
	case Paused:
		p.Play()
	}
}

// Seek moves the position to pos clamped to [0, duration]. It does nothing when idle.
func (p *Player) Seek(pos time.Duration) {
	cur := p.current()
	if cur == nil {
		return
	}
	p.position = clampDuration(pos, 0, cur.Length())
	p.call("seek", p.backend.Seek(p.position))
	p.notify()
}

// Next loads the following queue entry. On the last entry it does nothing.
//
// A player that was playing keeps playing the new track.
func (p *Player) Next() {
	if p.current() == nil || p.index >= len(p.queue)-1 {
		return
	}
	p.step(p.index + 1)
}

// Previous loads the preceding queue entry. On the first entry it does nothing.
func (p *Player) Previous() {
	if p.current() == nil || p.index <= 0 {
		return
	}
	p.step(p.index - 1)
}

// Advance moves the position forward by d as reported by the playback clock.
//
// It is ignored unless playing or when the track length is unknown. Reaching the end of a track moves to the next
// one, or pauses at the end of the last.
func (p *Player) Advance(d time.Duration) {
	cur := p.current()
	if cur == nil || !p.playing || d <= 0 {
		return
	}

	length := cur.Length()
	if length <= 0 {
		return
	}

	p.position += d
	if p.position < length {
		p.notify()
		return
	}

	if p.index < len(p.queue)-1 {
		p.step(p.index + 1)
		return
	}

	p.position = length
	p.playing = false
	p.call("pause", p.backend.Pause())
	p.notify()
}

// SetVolume sets the output volume clamped to [0, 1].
func (p *Player) SetVolume(v float64) {
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	p.volume = v
	p.call("volume", p.backend.SetVolume(v))
	p.notify()
}

// Volume returns the current output volume.
func (p *Player) Volume() float64 {
	return p.volume
}

func (p *Player) current() *models.Track {
	if p.index < 0 || p.index >= len(p.queue) {
		return nil
	}
	return &p.queue[p.index]
}

// step loads idx and restores the play flag the player had before.
func (p *Player) step(idx int) {
	wasPlaying := p.playing
	p.playing = false
	p.load(idx)
	if wasPlaying {
		p.playing = true
		p.call("play", p.backend.Play())
	}
	p.notify()
}

// load points the player at idx with the position reset. It does not notify.
func (p *Player) load(idx int) {
	p.index = idx
	p.position = 0
	track := p.queue[idx]
	p.logger.Debug("loading track", "provider", track.Provider, "id", track.ID, "title", track.Title)
	p.call("load", p.backend.Load(track))
}

func (p *Player) indexOf(key string) int {
	for i := range p.queue {
		if p.queue[i].Key() == key {
			return i
		}
	}
	return -1
}

func (p *Player) call(op string, err error) {
	if err != nil {
		p.logger.Warn("playback backend error", "op", op, "error", err)
	}
}

func (p *Player) notify() {
	if len(p.observers) == 0 {
		return
	}
	state := p.State()
	for _, fn := range p.observers {
		fn(state)
	}
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if hi < lo {
		hi = lo
	}
	switch {
	case d < lo:
		return lo
	case d > hi:
		return hi
	default:
		return d
	}
}
