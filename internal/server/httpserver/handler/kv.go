package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/minikv-go/internal/core/command"
	"github.com/yndnr/minikv-go/internal/core/domain"
)

// handlePing handles GET /ping.
func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, command.ReplyPong)
}

// handleGet handles GET /get/{key}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	v, ok := h.store.Get(chi.URLParam(r, "key"))
	if !ok {
		WriteError(w, r, domain.ErrKeyNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, ValueResponse{Value: v})
}

// handleSet handles POST /set/{key}?value=v[&ex=seconds].
func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("value") {
		WriteError(w, r, domain.ErrBadRequest.WithMessage("query parameter 'value' is required"))
		return
	}

	var expiresAt time.Time
	if ex := q.Get("ex"); ex != "" {
		secs, err := parseSeconds(ex)
		if err != nil {
			WriteError(w, r, domain.ErrSecondsNotInt)
			return
		}
		expiresAt = h.now().Add(secs)
	}

	h.store.Set(chi.URLParam(r, "key"), q.Get("value"), expiresAt)
	writeJSON(w, r, http.StatusOK, command.ReplyOK)
}

// handleDel handles DELETE /del/{key}.
func (h *Handler) handleDel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, RemovedResponse{Removed: boolInt(h.store.Delete(chi.URLParam(r, "key")))})
}

// handleIncr handles POST /incr/{key}.
func (h *Handler) handleIncr(w http.ResponseWriter, r *http.Request) {
	res := h.store.Increment(chi.URLParam(r, "key"))
	if !res.OK() {
		WriteError(w, r, res.Err)
		return
	}
	writeJSON(w, r, http.StatusOK, ValueResponse{Value: res.Value})
}

// handleExpire handles POST /expire/{key}?seconds=s.
func (h *Handler) handleExpire(w http.ResponseWriter, r *http.Request) {
	secs, err := parseSeconds(r.URL.Query().Get("seconds"))
	if err != nil {
		WriteError(w, r, domain.ErrSecondsNotInt)
		return
	}
	applied := h.store.Expire(chi.URLParam(r, "key"), secs)
	writeJSON(w, r, http.StatusOK, AppliedResponse{Applied: boolInt(applied)})
}

// handleTTL handles GET /ttl/{key}.
func (h *Handler) handleTTL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, TTLResponse{TTL: h.store.TTL(chi.URLParam(r, "key")).Seconds()})
}

// handleKeys handles GET /keys. Keys are sorted for stable output.
func (h *Handler) handleKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.store.Keys()
	if keys == nil {
		keys = []string{}
	}
	sort.Strings(keys)
	writeJSON(w, r, http.StatusOK, KeysResponse{Keys: keys})
}

// handleFlushAll handles POST /flushall.
func (h *Handler) handleFlushAll(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	writeJSON(w, r, http.StatusOK, command.ReplyOK)
}

// handleSave handles POST /save.
func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	n, err := h.dispatcher.Save(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SavedResponse{Saved: n})
}

func parseSeconds(s string) (time.Duration, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
