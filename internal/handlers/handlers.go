package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"tinyuno/internal/game"
	"tinyuno/internal/logging"
	"tinyuno/internal/uno"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Engine    *game.Engine
	Commit    string
	BuildDate string
	// Heartbeat is the idle interval between SSE keep-alive frames.
	Heartbeat time.Duration
}

// NewHandler creates a new handler instance
func NewHandler(engine *game.Engine) *Handler {
	return &Handler{Engine: engine, Commit: "dev", Heartbeat: 15 * time.Second}
}

// Routes registers every endpoint and wraps them in the middleware chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("POST /games", h.HandleCreate)
	mux.HandleFunc("POST /games/{id}/join", h.HandleJoin)
	mux.HandleFunc("POST /games/{id}/ready", h.HandleReady)
	mux.HandleFunc("POST /games/{id}/start", h.HandleStart)
	mux.HandleFunc("GET /games/{id}/turn", h.HandleTurn)
	mux.HandleFunc("GET /games/{id}/state", h.HandleState)
	mux.HandleFunc("POST /games/{id}/play", h.HandlePlay)
	mux.HandleFunc("POST /games/{id}/draw", h.HandleDraw)
	mux.HandleFunc("POST /games/{id}/end-turn", h.HandleEndTurn)
	mux.HandleFunc("POST /games/{id}/end", h.HandleEnd)
	mux.HandleFunc("GET /sse/{id}", h.HandleSSE)
	return RequestID(LogRequests(mux))
}

type createRequest struct {
	HostID   int64 `json:"hostId"`
	Capacity int   `json:"capacity"`
}

type seatRequest struct {
	UserID int64 `json:"userId"`
	Ready  *bool `json:"ready,omitempty"`
}

type playRequest struct {
	UserID      int64      `json:"userId"`
	CardID      int64      `json:"cardId"`
	ChosenColor *uno.Color `json:"chosenColor,omitempty"`
}

type drawRequest struct {
	UserID int64 `json:"userId"`
	Count  int   `json:"count"`
}

type endRequest struct {
	WinnerID *int64 `json:"winnerId,omitempty"`
}

// HandleHealth reports liveness and the running build
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "commit": h.Commit, "buildDate": h.BuildDate})
}

// HandleCreate opens a new lobby
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if !decode(w, r, &body) {
		return
	}
	g, err := h.Engine.CreateGame(r.Context(), body.HostID, body.Capacity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "game": g})
}

// HandleJoin seats a user in a lobby
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var body seatRequest
	if !decode(w, r, &body) {
		return
	}
	seat, err := h.Engine.JoinGame(r.Context(), id, body.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "seat": seat})
}

// HandleReady toggles a seat's ready flag
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var body seatRequest
	if !decode(w, r, &body) {
		return
	}
	ready := true
	if body.Ready != nil {
		ready = *body.Ready
	}
	if err := h.Engine.SetReady(r.Context(), id, body.UserID, ready); err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "ready": ready})
}

// HandleStart deals the game
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	res, err := h.Engine.StartGame(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "firstPlayerId": res.FirstPlayerID, "starterCard": res.StarterCard, "order": res.Order})
}

// HandleTurn reports whose turn it is
func (h *Handler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	turn, err := h.Engine.CurrentTurn(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "turn": turn})
}

// HandleState returns a snapshot of the game for the viewer in ?userId=
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	viewer, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	snap, err := h.Engine.State(r.Context(), id, viewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": snap})
}

// HandlePlay plays a card. Rule violations come back as ok=false with the reason.
func (h *Handler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var body playRequest
	if !decode(w, r, &body) {
		return
	}
	res, err := h.Engine.PlayCard(r.Context(), id, body.UserID, body.CardID, body.ChosenColor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !res.Success {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": res.Message})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "winnerId": res.WinnerID})
}

// HandleDraw draws cards for the current player
func (h *Handler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var body drawRequest
	if !decode(w, r, &body) {
		return
	}
	res, err := h.Engine.DrawCards(r.Context(), id, body.UserID, body.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "cardIds": res.CardIDs})
}

// HandleEndTurn passes the turn on
func (h *Handler) HandleEndTurn(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var body seatRequest
	if !decode(w, r, &body) {
		return
	}
	turn, err := h.Engine.EndTurn(r.Context(), id, body.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "turn": turn})
}

// HandleEnd force-ends a game
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var body endRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}
	g, err := h.Engine.EndGame(r.Context(), id, body.WinnerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "game": g})
}

// HandleSSE streams game events. A Last-Event-ID header replays what the
// client missed.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	viewer, ok := queryID(w, r, "userId")
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// subscribe before reading so nothing committed in between is lost
	ch, stop := h.Engine.Hub().Watch(id)
	defer stop()

	snap, err := h.Engine.State(r.Context(), id, viewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	last := snap.LastEventID
	var backlog []game.Event
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if after, err := strconv.ParseInt(v, 10, 64); err == nil && after < last {
			if backlog, err = h.Engine.EventsSince(r.Context(), id, after); err != nil {
				writeError(w, r, err)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	initial, _ := json.Marshal(map[string]any{"kind": "state", "state": snap})
	_, _ = fmt.Fprintf(w, "data: %s\n\n", initial)
	for _, e := range backlog {
		last = max(last, e.ID)
		writeEvent(w, e)
	}
	flusher.Flush()

	every := h.Heartbeat
	if every <= 0 {
		every = 15 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// heartbeat
			_, _ = w.Write([]byte("data: {}\n\n"))
			flusher.Flush()
		case e := <-ch:
			if e.ID <= last {
				continue
			}
			last = e.ID
			writeEvent(w, e)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e game.Event) {
	data, _ := json.Marshal(e)
	_, _ = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", e.ID, data)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return false
	}
	return true
}

func gameID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad game id"})
		return 0, false
	}
	return id, true
}

// queryID parses an optional id query parameter; absent means zero.
func queryID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad " + key})
		return 0, false
	}
	return id, true
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidUser), errors.Is(err, game.ErrInvalidCapacity):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidPlay), errors.Is(err, game.ErrCardNotInHand):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrInvalidState),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrNotSeated),
		errors.Is(err, game.ErrAlreadySeated),
		errors.Is(err, game.ErrGameFull),
		errors.Is(err, game.ErrInsufficientPlayers),
		errors.Is(err, game.ErrInsufficientDrawPile),
		errors.Is(err, game.ErrDeckExhausted),
		errors.Is(err, game.ErrAlreadyDealt):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.With("request_id", RequestIDFrom(r.Context())).Errorw("request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	WriteJSON(w, status, map[string]any{"ok": false, "error": msg})
}
