package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/fortuna/dugout/internal/ingest"
	"github.com/fortuna/dugout/internal/ingest/scoreboard"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/reconciliation"
	"github.com/fortuna/dugout/internal/scorekeeping"
	"github.com/fortuna/dugout/internal/store"
	"github.com/fortuna/dugout/internal/tweet"
)

const (
	serviceName    = "dugout"
	serviceVersion = "1.0.0"
)

// LiveSource produces live feeds.
type LiveSource interface {
	Snapshot(ctx context.Context, gameID string) (*ingest.LiveFeed, error)
}

// FinalSource produces unified final games.
type FinalSource interface {
	Scorekeeping(ctx context.Context, gameID string) (*scorekeeping.Data, error)
}

// Archive persists unified final games.
type Archive interface {
	Save(ctx context.Context, data *scorekeeping.Data) error
	Get(ctx context.Context, gameID string) (*scorekeeping.Data, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	live    LiveSource
	final   FinalSource
	archive Archive
	opts    tweet.Options
	log     *logging.Logger
}

// NewHandler creates a new handler. archive may be nil.
func NewHandler(live LiveSource, final FinalSource, archive Archive, opts tweet.Options, log *logging.Logger) *Handler {
	return &Handler{live: live, final: final, archive: archive, opts: opts, log: log}
}

// PlayView is an event with the state derived after it.
type PlayView struct {
	plays.Event
	State plays.DerivedState `json:"state"`
}

// PlaysResponse is the body of the plays route.
type PlaysResponse struct {
	GameID         string                `json:"gameId"`
	Summary        *scoreboard.Summary   `json:"summary"`
	Plays          []PlayView            `json:"plays"`
	Reconciliation reconciliation.Report `json:"reconciliation"`
}

// TweetResponse is the body of the post preview route.
type TweetResponse struct {
	GameID    string `json:"gameId"`
	PlayKey   string `json:"playKey"`
	Text      string `json:"text"`
	Length    int    `json:"length"`
	MaxLength int    `json:"maxLength"`
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// GetPlays returns the live play list of a game with derived state.
func (h *Handler) GetPlays(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]

	feed, err := h.live.Snapshot(r.Context(), gameID)
	if err != nil {
		h.upstreamError(w, "Failed to fetch live plays", err)
		return
	}

	views := make([]PlayView, len(feed.Events))
	for i, e := range feed.Events {
		views[i] = PlayView{Event: e, State: feed.State[e.Key]}
	}
	respondJSON(w, http.StatusOK, PlaysResponse{
		GameID:         gameID,
		Summary:        feed.Summary,
		Plays:          views,
		Reconciliation: feed.Reconciliation,
	})
}

// GetPlayTweet renders the post for one play.
func (h *Handler) GetPlayTweet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, key := vars["gameID"], vars["playKey"]

	opts := h.opts
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid max parameter", err)
			return
		}
		opts.MaxLength = n
	}

	feed, err := h.live.Snapshot(r.Context(), gameID)
	if err != nil {
		h.upstreamError(w, "Failed to fetch live plays", err)
		return
	}
	e, ok := feed.Find(key)
	if !ok {
		respondError(w, http.StatusNotFound, "Play not found", nil)
		return
	}

	text := tweet.FormatPlay(tweet.FromEvent(e, feed.State[e.Key], feed.GameState()), opts)
	limit := opts.MaxLength
	if limit <= 0 {
		limit = tweet.DefaultMaxLength
	}
	respondJSON(w, http.StatusOK, TweetResponse{
		GameID:    gameID,
		PlayKey:   key,
		Text:      text,
		Length:    len([]rune(text)),
		MaxLength: limit,
	})
}

// GetScorekeeping unifies a final game. With archive=true the result is
// also saved when an archive is configured.
func (h *Handler) GetScorekeeping(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]

	data, err := h.final.Scorekeeping(r.Context(), gameID)
	if err != nil {
		h.upstreamError(w, "Failed to build scorekeeping", err)
		return
	}

	if archive, _ := strconv.ParseBool(r.URL.Query().Get("archive")); archive && h.archive != nil {
		if err := h.archive.Save(r.Context(), data); err != nil {
			h.log.Error("archive save failed", "game_id", gameID, "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to archive game", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, data)
}

// GetArchive returns a previously archived game.
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]

	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "Archive not configured", nil)
		return
	}
	data, err := h.archive.Get(r.Context(), gameID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Game not archived", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load archive", err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (h *Handler) upstreamError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ingest.ErrUpstream) || errors.Is(err, ingest.ErrDecode) {
		status = http.StatusBadGateway
	}
	h.log.Warn(message, "error", err)
	respondError(w, status, message, err)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
