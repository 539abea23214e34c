package api

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/imaging"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/rpupo63/fieldlens-backend/services"
	"github.com/rpupo63/fieldlens-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultMaxUploadBytes = 20 << 20

// DraftDiscarder drops pending annotation drafts of a photo
type DraftDiscarder interface {
	Discard(photoID int64) bool
}

type photoHandler struct {
	responder      Responder
	logger         zerolog.Logger
	photos         *services.PhotoService
	store          storage.Store
	drafts         DraftDiscarder
	maxUploadBytes int64
}

func newPhotoHandler(photos *services.PhotoService, store storage.Store, drafts DraftDiscarder, maxUploadBytes int64) photoHandler {
	logger := log.With().Str("handlerName", "photoHandler").Logger()
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	return photoHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		photos:         photos,
		store:          store,
		drafts:         drafts,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h photoHandler) getAllPhotos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photos, err := h.photos.GetAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, PhotoCollection{Photos: photos, Total: len(photos)})
	}
}

func (h photoHandler) getPhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		photo, err := h.photos.GetByID(r.Context(), photoID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, photo)
	}
}

// createPhoto stores photo metadata for an image that already has a url
func (h photoHandler) createPhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var photo models.Photo
		if err := decodeBody(h.logger, r, &photo, "photo"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		created, err := h.photos.Create(r.Context(), photo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, created)
	}
}

// uploadPhoto accepts a multipart form with an image in "file" plus projectId, description,
// comma separated tags and optional latitude/longitude. The image is re-encoded as JPEG and
// stored with a thumbnail.
func (h photoHandler) uploadPhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(h.maxUploadBytes))
				return
			}
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		projectID, err := strconv.ParseInt(r.FormValue("projectId"), 10, 64)
		if err != nil || projectID <= 0 {
			h.responder.WriteError(w, errs.NewNoProjectSelectedError())
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !slices.Contains(imaging.AllowedContentTypes, contentType) {
			h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(contentType, imaging.AllowedContentTypes))
			return
		}

		img, _, err := imaging.Decode(io.LimitReader(file, h.maxUploadBytes))
		if err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("file", err.Error()))
			return
		}
		full, err := imaging.EncodeJPEG(img, imaging.CaptureQuality)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("encode upload", err))
			return
		}
		thumb, err := imaging.ThumbnailJPEG(img)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("encode thumbnail", err))
			return
		}

		ctx := r.Context()
		fullRef, err := h.store.Put(ctx, header.Filename, full, imaging.ContentTypeJPEG)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		thumbRef, err := h.store.Put(ctx, "thumb-"+header.Filename, thumb, imaging.ContentTypeJPEG)
		if err != nil {
			h.revoke(r, fullRef)
			h.responder.WriteError(w, err)
			return
		}

		photo := models.Photo{
			ProjectID:    projectID,
			URL:          fullRef,
			ThumbnailURL: thumbRef,
			Description:  strings.TrimSpace(r.FormValue("description")),
			Tags:         splitTags(r.FormValue("tags")),
		}
		if location, ok := parseLocation(r.FormValue("latitude"), r.FormValue("longitude")); ok {
			photo.Location = location
		}

		created, err := h.photos.Create(ctx, photo)
		if err != nil {
			h.revoke(r, fullRef, thumbRef)
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Int64("photoId", created.ID).Str("filename", header.Filename).Int("bytes", len(full)).Msg("Photo uploaded")
		h.responder.WriteJSONStatus(w, http.StatusCreated, created)
	}
}

func (h photoHandler) revoke(r *http.Request, refs ...string) {
	for _, ref := range refs {
		if err := h.store.Delete(r.Context(), ref); err != nil {
			h.logger.Warn().Err(err).Str("ref", ref).Msg("Failed to delete uploaded object")
		}
	}
}

func (h photoHandler) updatePhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var patch models.PhotoPatch
		if err := decodeBody(h.logger, r, &patch, "photo"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		updated, err := h.photos.Update(r.Context(), photoID, patch)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, updated)
	}
}

func (h photoHandler) deletePhoto() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID, err := parseID(r, "photoID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.photos.Delete(r.Context(), photoID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if h.drafts != nil && h.drafts.Discard(photoID) {
			h.logger.Info().Int64("photoId", photoID).Msg("Dropped annotation draft of deleted photo")
		}

		h.responder.WriteJSON(w, StatusResponse{
			Status:  "success",
			Message: "photo deleted successfully",
		})
	}
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseLocation(lat, lng string) (*models.GeoPoint, bool) {
	if lat == "" || lng == "" {
		return nil, false
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil || latitude < -90 || latitude > 90 {
		return nil, false
	}
	longitude, err := strconv.ParseFloat(lng, 64)
	if err != nil || longitude < -180 || longitude > 180 {
		return nil, false
	}
	return &models.GeoPoint{Latitude: latitude, Longitude: longitude}, true
}
