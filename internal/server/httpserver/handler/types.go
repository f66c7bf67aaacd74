package handler

// ErrorBody is the error envelope for non-2xx responses.
type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorDetail carries a domain error code and its message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValueResponse is returned by GET /get/{key} and POST /incr/{key}.
type ValueResponse struct {
	Value any `json:"value"`
}

// RemovedResponse is returned by DELETE /del/{key}.
type RemovedResponse struct {
	Removed int `json:"removed"`
}

// AppliedResponse is returned by POST /expire/{key}.
type AppliedResponse struct {
	Applied int `json:"applied"`
}

// TTLResponse is returned by GET /ttl/{key}.
type TTLResponse struct {
	TTL int64 `json:"ttl"`
}

// KeysResponse is returned by GET /keys.
type KeysResponse struct {
	Keys []string `json:"keys"`
}

// SavedResponse is returned by POST /save.
type SavedResponse struct {
	Saved int `json:"saved"`
}

// CommandRequest is the body of POST /command. Either Command holds a
// whole line, or Verb and Args hold pre-split tokens.
type CommandRequest struct {
	Command string   `json:"command,omitempty"`
	Verb    string   `json:"verb,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// CommandResponse is returned by POST /command.
type CommandResponse struct {
	Reply string `json:"reply"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Keys    int    `json:"keys"`
}
