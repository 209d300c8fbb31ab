package server

import (
	"context"
	"net/http"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"
	"github.com/Tropical8818/iProTalk/sink"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeBody(w, r, &req, errors.ErrInvalidRequest); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.accounts.Register(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeBody(w, r, &req, errors.ErrInvalidRequest); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.accounts.Login(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) uploadKeys(w http.ResponseWriter, r *http.Request) {
	var req auth.KeyUploadRequest
	if err := decodeBody(w, r, &req, errors.ErrInvalidRequest); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.keys.Upload(auth.CredentialFromRequest(r), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getKeys(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.keys.Get(chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var payload domain.Payload
	if err := decodeBody(w, r, &payload, errors.ErrInvalidPayload); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.relayPayload(w, r, payload)
}

// submitToGroup fills group_id from the path when the body leaves it out.
func (s *Server) submitToGroup(w http.ResponseWriter, r *http.Request) {
	var payload domain.Payload
	if err := decodeBody(w, r, &payload, errors.ErrInvalidPayload); err != nil {
		s.writeError(w, r, err)
		return
	}
	if payload.GroupID == nil {
		payload.GroupID = lo.ToPtr(chi.URLParam(r, "groupID"))
	}
	s.relayPayload(w, r, payload)
}

func (s *Server) relayPayload(w http.ResponseWriter, r *http.Request, payload domain.Payload) {
	id, err := s.relay.Submit(r.Context(), auth.CredentialFromRequest(r), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.relay.GetMessage(r.Context(), auth.CredentialFromRequest(r), chi.URLParam(r, "messageID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// streamEvents serves the live stream as Server-Sent Events until the client
// disconnects.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	session, err := s.relay.Subscribe(r.Context(), auth.CredentialFromRequest(r), sink.NewSSETransport(w))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := session.Run(r.Context()); err != nil {
		s.log.Debug("SSE stream ended", "error", err)
	}
}

// streamWebSocket serves the same stream over a WebSocket connection.
func (s *Server) streamWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	transport := sink.NewWebSocketTransport(&s.upgrader, w, r, cancel)
	session, err := s.relay.Subscribe(ctx, auth.CredentialFromRequest(r), transport)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = transport.Close() }()

	if err := session.Run(ctx); err != nil {
		s.log.Debug("WebSocket stream ended", "error", err)
	}
}
