package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/fieldlens-backend/capture"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rpupo63/fieldlens-backend/imaging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type captureHandler struct {
	responder Responder
	logger    zerolog.Logger
	sessions  *capture.Manager
	publisher events.Publisher
}

func newCaptureHandler(sessions *capture.Manager, publisher events.Publisher) captureHandler {
	logger := log.With().Str("handlerName", "captureHandler").Logger()

	return captureHandler{
		responder: NewResponder(logger),
		logger:    logger,
		sessions:  sessions,
		publisher: publisher,
	}
}

func (h captureHandler) controller(r *http.Request) (string, *capture.Controller, error) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		return "", nil, errs.NewMissingRequiredFieldError("sessionID")
	}
	c, err := h.sessions.Get(sessionID)
	return sessionID, c, err
}

// openSession opens the camera in a new capture session
func (h captureHandler) openSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, status, err := h.sessions.Open(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		resp := CaptureSessionResponse{SessionID: sessionID, Status: status}
		h.publisher.Publish(events.Event{Type: events.CaptureOpened, Data: resp, Timestamp: time.Now()})
		h.responder.WriteJSONStatus(w, http.StatusCreated, resp)
	}
}

func (h captureHandler) getSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, c, err := h.controller(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, CaptureSessionResponse{SessionID: sessionID, Status: c.Status()})
	}
}

// closeSession releases the camera
func (h captureHandler) closeSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if err := h.sessions.Close(sessionID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.publisher.Publish(events.Event{
			Type:      events.CaptureClosed,
			Data:      map[string]string{"sessionId": sessionID},
			Timestamp: time.Now(),
		})
		h.responder.WriteJSON(w, StatusResponse{Status: "success", Message: "camera closed"})
	}
}

func (h captureHandler) preview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, c, err := h.controller(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		frame, err := c.Preview(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		h.responder.WriteBlob(w, imaging.ContentTypeJPEG, frame)
	}
}

// capturePhoto takes a still of the current frame for the project in the request body
func (h captureHandler) capturePhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, c, err := h.controller(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req capture.Request
		if r.ContentLength != 0 {
			if err := decodeBody(h.logger, r, &req, "capture"); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		photo, err := c.Capture(r.Context(), req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, CaptureResponse{Photo: photo, Status: c.Status()})
	}
}

func (h captureHandler) retake() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, c, err := h.controller(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := c.Retake(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, CaptureSessionResponse{SessionID: sessionID, Status: c.Status()})
	}
}
