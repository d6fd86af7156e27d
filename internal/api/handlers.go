package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"maze-arena/internal/game"
	"maze-arena/internal/minimap"
)

const (
	// maxInputBody caps POST /api/input bodies
	maxInputBody = 64 << 10
	// maxInputBatch caps events per POST /api/input request
	maxInputBatch = 256
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()

	if requestFormat(r) == FormatMsgpack {
		data, err := marshalMsgpack(snap)
		if err != nil {
			h.logger.Error("❌ State encode failed", zap.Error(err))
			writeError(w, "encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", msgpackContentType)
		w.Write(data)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	// Lock-free snapshot read, never touches the world
	snap := h.engine.GetSnapshot()
	queued, dropped := h.engine.InputStats()

	writeJSON(w, map[string]interface{}{
		"sequence":        snap.Sequence,
		"tick":            snap.TickNumber,
		"simTime":         snap.SimTime,
		"paused":          snap.Paused,
		"tickRate":        h.engine.TickRate(),
		"enemyCount":      snap.EnemyCount,
		"projectileCount": snap.ProjectileCount,
		"totalKills":      snap.TotalKills,
		"resets":          snap.Resets,
		"ap":              snap.HUD.AP,
		"pa":              snap.HUD.PA,
		"inputQueued":     queued,
		"inputDropped":    dropped,
		"eventLog":        h.engine.GetEventLogStats(),
	})
}

func (h *routerHandlers) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Layout())
}

func (h *routerHandlers) handleGetMaze(w http.ResponseWriter, r *http.Request) {
	room, err := strconv.Atoi(chi.URLParam(r, "room"))
	if err != nil {
		writeError(w, "room must be an integer", http.StatusBadRequest)
		return
	}
	layout := h.engine.Layout()
	if room < 0 || room >= len(layout.Rooms) {
		writeError(w, "no such room", http.StatusNotFound)
		return
	}

	rows := layout.Rooms[room].Maze
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, strings.Join(rows, "\n")+"\n")
		return
	}
	writeJSON(w, layout.Rooms[room])
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputBody))
	if err != nil {
		writeError(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}

	msgs, err := decodeInputBody(body)
	if err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if len(msgs) > maxInputBatch {
		writeError(w, "Too many events", http.StatusRequestEntityTooLarge)
		return
	}

	// Validate the whole batch before queueing any of it
	events := make([]game.InputEvent, len(msgs))
	for i, m := range msgs {
		ev, err := m.ToEvent()
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		events[i] = ev
	}

	accepted, rejected := 0, 0
	for _, ev := range events {
		if h.engine.SubmitInput(ev) {
			accepted++
		} else {
			rejected++
		}
	}

	if rejected > 0 {
		w.Header().Set("Retry-After", "1")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]int{"accepted": accepted, "rejected": rejected})
		return
	}
	writeJSON(w, map[string]int{"accepted": accepted, "rejected": 0})
}

// decodeInputBody accepts one message or an array of them
func decodeInputBody(body []byte) ([]InputMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if body[0] == '[' {
		var msgs []InputMessage
		if err := json.Unmarshal(body, &msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	}
	var m InputMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return []InputMessage{m}, nil
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused *bool `json:"paused"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Paused == nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	h.engine.SetPaused(*req.Paused)
	h.logger.Info("⏸️ Pause requested via API", zap.Bool("paused", *req.Paused))
	writeJSON(w, map[string]bool{"paused": *req.Paused})
}

func (h *routerHandlers) handleMinimap(w http.ResponseWriter, r *http.Request) {
	opts := minimap.DefaultOptions()
	if v := r.URL.Query().Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, "size must be an integer", http.StatusBadRequest)
			return
		}
		opts.Size = size
	}
	if r.URL.Query().Get("mazes") == "false" {
		opts.Mazes = false
	}

	data, err := h.minimap.RenderPNG(h.engine.GetSnapshot(), opts)
	if errors.Is(err, minimap.ErrInvalidSize) {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("❌ Minimap render failed", zap.Error(err))
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
