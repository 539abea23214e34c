package api

import (
	"net/http"

	"github.com/rpupo63/fieldlens-backend/annotation"
	"github.com/rpupo63/fieldlens-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type annotationHandler struct {
	responder   Responder
	logger      zerolog.Logger
	overlay     *annotation.Overlay
	defaultUser string
}

func newAnnotationHandler(overlay *annotation.Overlay, defaultUser string) annotationHandler {
	logger := log.With().Str("handlerName", "annotationHandler").Logger()

	return annotationHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		overlay:     overlay,
		defaultUser: defaultUser,
	}
}

func (h annotationHandler) getDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		draft, err := h.overlay.Get(r.Context(), photoID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, draft)
	}
}

// addAnnotation places a text marker where the user clicked on the rendered image
func (h annotationHandler) addAnnotation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req AddAnnotationRequest
		if err := decodeBody(h.logger, r, &req, "annotation"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		author := services.UserFromContext(r.Context(), h.defaultUser)
		draft, added, err := h.overlay.Add(r.Context(), photoID, req.Click, req.Bounds, req.Text, author)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status := http.StatusOK
		if added != nil {
			status = http.StatusCreated
		}
		h.responder.WriteJSONStatus(w, status, AddAnnotationResponse{Draft: draft, Annotation: added})
	}
}

func (h annotationHandler) discardDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := "no draft to discard"
		if h.overlay.Discard(photoID) {
			message = "draft discarded"
		}
		h.responder.WriteJSON(w, StatusResponse{Status: "success", Message: message})
	}
}

// saveAnnotations writes the accumulated draft to the photo
func (h annotationHandler) saveAnnotations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		photo, err := h.overlay.Save(r.Context(), photoID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, photo)
	}
}
