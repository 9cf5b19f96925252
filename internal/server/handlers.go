package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/mixdeck/internal/favorites"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/playback"
	"github.com/desertthunder/mixdeck/internal/services"
	"github.com/desertthunder/mixdeck/internal/shared"
)

const maxQueryLength = 200

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"service": "mixdeck",
	}

	if s.store == nil {
		resp["database"] = "disabled"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		resp["status"] = "degraded"
		resp["database"] = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp["database"] = "ok"
	writeJSON(w, http.StatusOK, resp)
}

type providerError struct {
	Provider models.Provider `json:"provider"`
	Error    string          `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query too long")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		tracks []models.Track
		failed []providerError
	)

	if raw := q.Get("provider"); raw != "" {
		p, err := models.LookupProvider(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unsupported provider")
			return
		}

		tracks, err = s.search.Search(r.Context(), p, query, limit)
		if err != nil {
			s.writeSearchError(w, err)
			return
		}
	} else {
		results, err := s.search.SearchAll(r.Context(), query, limit)
		if err != nil {
			s.writeSearchError(w, err)
			return
		}
		for _, res := range results {
			if res.Err != nil {
				failed = append(failed, providerError{Provider: res.Provider, Error: res.Err.Error()})
				continue
			}
			tracks = append(tracks, res.Tracks...)
		}
	}

	if tracks == nil {
		tracks = []models.Track{}
	}
	s.markFavorites(r, tracks)

	resp := map[string]any{"items": tracks}
	if len(failed) > 0 {
		resp["errors"] = failed
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrProviderNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "provider not configured")
	default:
		s.logger.Error("search failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to query provider")
	}
}

// markFavorites flags favorited results. A store failure is logged and the results are returned unflagged.
func (s *Server) markFavorites(r *http.Request, tracks []models.Track) {
	if s.store == nil || len(tracks) == 0 {
		return
	}
	if err := favorites.MarkFavorites(r.Context(), s.store, tracks); err != nil {
		s.logger.Warn("failed to mark favorites", "error", err)
	}
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "favorites store not configured")
		return false
	}
	return true
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("provider"))
	if raw == "" || strings.EqualFold(raw, "all") {
		groups, err := favorites.ListAll(r.Context(), s.store)
		if err != nil {
			s.logger.Error("list favorites failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list favorites")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": favorites.Flatten(groups), "groups": groups})
		return
	}

	p, err := models.LookupProvider(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported provider")
		return
	}

	tracks, err := s.store.List(r.Context(), p)
	if err != nil {
		s.logger.Error("list favorites failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tracks})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	var track models.Track
	if err := decodeJSON(r, &track); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if track.ID == "" {
		writeError(w, http.StatusBadRequest, "track id is required")
		return
	}
	track = models.NewTrack(track.Provider, track.SearchItem)

	if err := favorites.Toggle(r.Context(), s.store, &track); err != nil {
		s.logger.Error("add favorite failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}

	s.session.Do(func(p *playback.Player) { p.SetFavorited(track.Key(), true) })
	writeJSON(w, http.StatusCreated, map[string]any{"item": track})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	p, err := models.LookupProvider(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported provider")
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.store.Remove(r.Context(), id, p); err != nil {
		if errors.Is(err, favorites.ErrNotFavorited) {
			writeError(w, http.StatusNotFound, "favorite not found")
			return
		}
		s.logger.Error("remove favorite failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}

	key := p.String() + ":" + id
	s.session.Do(func(pl *playback.Player) { pl.SetFavorited(key, false) })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateMessage(s.session.State()))
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	var op func(p *playback.Player)
	switch chi.URLParam(r, "action") {
	case "play":
		op = (*playback.Player).Play
	case "pause":
		op = (*playback.Player).Pause
	case "toggle":
		op = (*playback.Player).TogglePlayPause
	case "next":
		op = (*playback.Player).Next
	case "previous":
		op = (*playback.Player).Previous
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	writeJSON(w, http.StatusOK, newStateMessage(s.session.Do(op)))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PositionMs *int64 `json:"positionMs"`
	}
	if err := decodeJSON(r, &body); err != nil || body.PositionMs == nil {
		writeError(w, http.StatusBadRequest, "positionMs is required")
		return
	}

	pos := millis(*body.PositionMs)
	state := s.session.Do(func(p *playback.Player) { p.Seek(pos) })
	writeJSON(w, http.StatusOK, newStateMessage(state))
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Volume *float64 `json:"volume"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Volume == nil {
		writeError(w, http.StatusBadRequest, "volume is required")
		return
	}

	state := s.session.Do(func(p *playback.Player) { p.SetVolume(*body.Volume) })
	writeJSON(w, http.StatusOK, newStateMessage(state))
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	var queue []models.Track
	state := s.session.Do(func(p *playback.Player) { queue = p.Queue() })
	writeJSON(w, http.StatusOK, map[string]any{
		"items":   queue,
		"current": state.QueueIndex,
	})
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Track *models.Track `json:"track"`
		Play  bool          `json:"play"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Track == nil || body.Track.ID == "" {
		writeError(w, http.StatusBadRequest, "track is required")
		return
	}
	track := models.NewTrack(body.Track.Provider, body.Track.SearchItem)
	track.IsFavorited = body.Track.IsFavorited

	state := s.session.Do(func(p *playback.Player) {
		n := p.Enqueue(track)
		if body.Play {
			p.PlayAt(n - 1)
		}
	})
	writeJSON(w, http.StatusCreated, newStateMessage(state))
}

func (s *Server) queueIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		writeError(w, http.StatusBadRequest, "invalid queue index")
		return 0, false
	}
	return i, true
}

func (s *Server) handlePlayAt(w http.ResponseWriter, r *http.Request) {
	i, ok := s.queueIndex(w, r)
	if !ok {
		return
	}

	found := false
	state := s.session.Do(func(p *playback.Player) { found = p.PlayAt(i) })
	if !found {
		writeError(w, http.StatusNotFound, "queue index out of range")
		return
	}
	writeJSON(w, http.StatusOK, newStateMessage(state))
}

func (s *Server) handleDequeue(w http.ResponseWriter, r *http.Request) {
	i, ok := s.queueIndex(w, r)
	if !ok {
		return
	}

	found := false
	state := s.session.Do(func(p *playback.Player) { found = p.Remove(i) })
	if !found {
		writeError(w, http.StatusNotFound, "queue index out of range")
		return
	}
	writeJSON(w, http.StatusOK, newStateMessage(state))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	// the first message is always the current state
	if b, err := json.Marshal(newStateMessage(s.session.State())); err == nil {
		client.send <- b
	}

	if !s.hub.attach(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// millis converts ms to a [time.Duration], saturating instead of overflowing.
func millis(ms int64) time.Duration {
	const limit = math.MaxInt64 / int64(time.Millisecond)
	switch {
	case ms > limit:
		return math.MaxInt64
	case ms < -limit:
		return math.MinInt64
	default:
		return time.Duration(ms) * time.Millisecond
	}
}
