package playback

import "github.com/desertthunder/mixdeck/internal/models"

// Enqueue appends t to the queue without touching playback and returns the new queue length.
func (p *Player) Enqueue(t models.Track) int {
	p.queue = append(p.queue, t)
	p.notify()
	return len(p.queue)
}

// Queue returns a copy of the queue.
func (p *Player) Queue() []models.Track {
	out := make([]models.Track, len(p.queue))
	copy(out, p.queue)
	return out
}

// PlayAt makes queue entry i current and starts playing it. Out of range indexes are ignored.
func (p *Player) PlayAt(i int) bool {
	if i < 0 || i >= len(p.queue) {
		return false
	}
	p.playing = false
	p.load(i)
	p.playing = true
	p.call("play", p.backend.Play())
	p.notify()
	return true
}

// Remove drops queue entry i.
//
// Removing the current entry loads the one that slid into its place (or the new last entry), keeping the play flag.
// Removing the only entry leaves the player idle.
func (p *Player) Remove(i int) bool {
	if i < 0 || i >= len(p.queue) {
		return false
	}

	p.queue = append(p.queue[:i], p.queue[i+1:]...)

	switch {
	case i < p.index:
		p.index--
	case i == p.index:
		if len(p.queue) == 0 {
			p.index = -1
			p.position = 0
			if p.playing {
				p.playing = false
				p.call("pause", p.backend.Pause())
			}
			break
		}
		next := i
		if next >= len(p.queue) {
			next = len(p.queue) - 1
		}
		p.step(next)
		return true
	}

	p.notify()
	return true
}

// Clear empties the queue and returns the player to idle.
func (p *Player) Clear() {
	if p.playing {
		p.call("pause", p.backend.Pause())
	}
	p.queue = nil
	p.index = -1
	p.position = 0
	p.playing = false
	p.notify()
}

// SetFavorited updates the favorite flag of every queued copy of the track identified by key.
func (p *Player) SetFavorited(key string, favorited bool) {
	changed := false
	for i := range p.queue {
		if p.queue[i].Key() == key && p.queue[i].IsFavorited != favorited {
			p.queue[i].IsFavorited = favorited
			changed = true
		}
	}
	if changed {
		p.notify()
	}
}
