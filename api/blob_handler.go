package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type blobHandler struct {
	responder Responder
	logger    zerolog.Logger
	blobs     *storage.TransientStore
}

func newBlobHandler(blobs *storage.TransientStore) blobHandler {
	logger := log.With().Str("handlerName", "blobHandler").Logger()

	return blobHandler{
		responder: NewResponder(logger),
		logger:    logger,
		blobs:     blobs,
	}
}

// getBlob serves a transient photo reference until it is revoked or expires
func (h blobHandler) getBlob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.blobs == nil {
			h.responder.WriteError(w, errs.NewNotFound("blob"))
			return
		}

		object, ok := h.blobs.Get(chi.URLParam(r, "ref"))
		if !ok {
			h.responder.WriteError(w, errs.NewNotFound("blob"))
			return
		}

		w.Header().Set("Last-Modified", object.CreatedAt.UTC().Format(http.TimeFormat))
		h.responder.WriteBlob(w, object.ContentType, object.Data)
	}
}

type healthHandler struct {
	responder Responder
	started   time.Time
	info      HealthInfo
}

// HealthInfo describes the running configuration reported by /health
type HealthInfo struct {
	StoreDriver     string
	CameraDriver    string
	CaptureSessions func() int
	Subscribers     func() int
}

func newHealthHandler(info HealthInfo) healthHandler {
	return healthHandler{
		responder: NewResponder(log.With().Str("handlerName", "healthHandler").Logger()),
		started:   time.Now(),
		info:      info,
	}
}

func (h healthHandler) getHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:       "ok",
			Uptime:       time.Since(h.started).Round(time.Second).String(),
			StoreDriver:  h.info.StoreDriver,
			CameraDriver: h.info.CameraDriver,
		}
		if h.info.CaptureSessions != nil {
			resp.CaptureSessions = h.info.CaptureSessions()
		}
		if h.info.Subscribers != nil {
			resp.Subscribers = h.info.Subscribers()
		}
		h.responder.WriteJSON(w, resp)
	}
}
