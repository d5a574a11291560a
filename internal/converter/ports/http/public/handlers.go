package public

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/google/uuid"
	"github.com/langowen/converter/internal/converter/widget"
	"github.com/langowen/converter/internal/entities"
	"log/slog"
	"net/http"
	"strconv"
)

// ShowWidget renders the widget, mounting a new session when the request
// carries none.
func (s *Server) ShowWidget(w http.ResponseWriter, r *http.Request) {
	_, wg, err := s.session(w, r)
	if err != nil {
		slog.Error("Failed to mount widget", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to mount widget")
		return
	}

	s.renderPage(w, http.StatusOK, wg.Snapshot(), "")
}

// SubmitWidget applies the posted form fields, then runs the requested action.
func (s *Server) SubmitWidget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid form", err.Error())
		return
	}

	_, wg, ok := s.existing(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if _, err := wg.Apply(formInput(r)); err != nil && s.sessionGone(w, err) {
		return
	}

	var alert string
	switch r.PostForm.Get("action") {
	case "convert":
		if _, err := wg.Convert(); err != nil {
			if s.sessionGone(w, err) {
				return
			}
			alert = entities.UserMessage(err)
		}
	case "refresh":
		if err := wg.Refresh(); err != nil && s.sessionGone(w, err) {
			return
		}
	}

	s.renderPage(w, http.StatusOK, wg.Snapshot(), alert)
}

func (s *Server) UnmountWidget(w http.ResponseWriter, r *http.Request) {
	if id, ok := sessionID(r); ok {
		if err := s.sessions.Unmount(id); err != nil && !errors.Is(err, entities.ErrSessionNotFound) {
			slog.Error("Failed to unmount widget", "error", err)
		}
	}

	clearCookie(w)
	RespondWithError(w, http.StatusOK, "widget closed")
}

func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	id, wg, err := s.session(w, r)
	if err != nil {
		RespondWithJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "failed to mount widget", Kind: "internal"})
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		defer cancel()
		_ = wg.Wait(ctx)
	}

	RespondWithJSON(w, http.StatusOK, newStateResponse(id.String(), wg.Snapshot()))
}

func (s *Server) UpdateState(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Kind: "bad_request"})
		return
	}

	id, wg, ok := s.existing(r)
	if !ok {
		sessionNotFound(w)
		return
	}

	if _, err := wg.Apply(widget.Input{Amount: req.Amount, From: req.From, To: req.To}); err != nil && s.sessionGone(w, err) {
		return
	}

	RespondWithJSON(w, http.StatusOK, newStateResponse(id.String(), wg.Snapshot()))
}

func (s *Server) DeleteState(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		sessionNotFound(w)
		return
	}

	if err := s.sessions.Unmount(id); err != nil {
		sessionNotFound(w)
		return
	}

	clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	_, wg, ok := s.existing(r)
	if !ok {
		sessionNotFound(w)
		return
	}

	conv, err := wg.Convert()
	if err != nil {
		if s.sessionGone(w, err) {
			return
		}
		RespondWithJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Message: entities.UserMessage(err),
			Kind:    entities.KindOf(err).String(),
		})
		return
	}

	RespondWithJSON(w, http.StatusOK, newResultResponse(conv))
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	id, wg, ok := s.existing(r)
	if !ok {
		sessionNotFound(w)
		return
	}

	if err := wg.Refresh(); err != nil && s.sessionGone(w, err) {
		return
	}

	RespondWithJSON(w, http.StatusAccepted, newStateResponse(id.String(), wg.Snapshot()))
}

// existing resolves the request's live widget without mounting one. Only the
// GET routes mount new sessions.
func (s *Server) existing(r *http.Request) (uuid.UUID, *widget.Widget, bool) {
	id, ok := sessionID(r)
	if !ok {
		return uuid.Nil, nil, false
	}

	wg, err := s.sessions.Get(id)
	if err != nil {
		return uuid.Nil, nil, false
	}
	return id, wg, true
}

// session resolves the request's widget, mounting a fresh one (and setting the
// cookie) when the request has no live session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (uuid.UUID, *widget.Widget, error) {
	if id, wg, ok := s.existing(r); ok {
		return id, wg, nil
	}

	id, wg, err := s.sessions.Mount()
	if err != nil {
		return uuid.Nil, nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(sessionHeader, id.String())

	return id, wg, nil
}

// sessionGone answers requests whose widget was unmounted mid-request.
func (s *Server) sessionGone(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, entities.ErrSessionClosed) {
		return false
	}
	RespondWithJSON(w, http.StatusGone, ErrorResponse{Message: "session closed", Kind: "gone"})
	return true
}

func sessionNotFound(w http.ResponseWriter) {
	RespondWithJSON(w, http.StatusNotFound, ErrorResponse{Message: "session not found", Kind: "not_found"})
}

func sessionID(r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(sessionHeader)
	if raw == "" {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			return uuid.Nil, false
		}
		raw = c.Value
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func formInput(r *http.Request) widget.Input {
	var in widget.Input
	if v, ok := r.PostForm["amount"]; ok && len(v) > 0 {
		in.Amount = &v[0]
	}
	if v, ok := r.PostForm["from"]; ok && len(v) > 0 {
		in.From = &v[0]
	}
	if v, ok := r.PostForm["to"]; ok && len(v) > 0 {
		in.To = &v[0]
	}
	return in
}
