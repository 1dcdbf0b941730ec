package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// envelope is the {message, data} shape the dashboard expects from most
// routes.
type envelope struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// respond writes v as protobuf when the client asked for it, JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsProtobuf(r) {
		if err := writeStruct(w, status, v); err == nil {
			return
		}
	}
	writeJSON(w, status, v)
}

var errEmptyBody = errors.New("empty body")

// decodeBody fills v from a JSON or protobuf (google.protobuf.Struct) body.
// Unknown JSON fields are rejected.
func decodeBody(r *http.Request, v any) error {
	if isProtobuf(r) {
		return readStruct(r, v)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}
