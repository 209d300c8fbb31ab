package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Tropical8818/iProTalk/errors"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.log.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.PublicMessage(err)})
}

// decodeBody reads a bounded JSON body into v. Any decoding failure is
// reported as invalid.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, invalid error) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", invalid)
		}
		return fmt.Errorf("%w: %v", invalid, err)
	}
	return nil
}
