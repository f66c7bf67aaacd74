package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yndnr/minikv-go/internal/core/domain"
)

// handleCommand handles POST /command. The reply uses the text
// grammar, so domain errors such as a wrong arity still answer 200.
func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, r, domain.ErrBadRequest.WithMessage("invalid JSON body: "+err.Error()))
		return
	}

	var reply string
	switch {
	case req.Verb != "":
		reply = h.dispatcher.Call(r.Context(), req.Verb, req.Args...)
	case strings.TrimSpace(req.Command) != "":
		reply = h.dispatcher.Process(r.Context(), req.Command)
	default:
		WriteError(w, r, domain.ErrBadRequest.WithMessage("either 'command' or 'verb' is required"))
		return
	}

	writeJSON(w, r, http.StatusOK, CommandResponse{Reply: reply})
}
