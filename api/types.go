package api

import (
	"github.com/rpupo63/fieldlens-backend/annotation"
	"github.com/rpupo63/fieldlens-backend/capture"
	"github.com/rpupo63/fieldlens-backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler    projectHandler
	photoHandler      photoHandler
	teamHandler       teamHandler
	annotationHandler annotationHandler
	captureHandler    captureHandler
	viewHandler       viewHandler
	blobHandler       blobHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// StatusResponse acknowledges an operation without a body of its own
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ProjectCollection struct {
	Projects []models.Project `json:"projects"`
	Total    int              `json:"total"`
}

type PhotoCollection struct {
	Photos []models.Photo `json:"photos"`
	Total  int            `json:"total"`
}

type TeamMemberCollection struct {
	Members []models.TeamMember `json:"members"`
	Total   int                 `json:"total"`
}

// AddAnnotationRequest carries a click on the rendered image and the image's bounding box
type AddAnnotationRequest struct {
	Click  annotation.Point  `json:"click"`
	Bounds annotation.Bounds `json:"bounds"`
	Text   string            `json:"text"`
}

type AddAnnotationResponse struct {
	Draft      annotation.Draft   `json:"draft"`
	Annotation *models.Annotation `json:"annotation,omitempty"`
}

type CaptureSessionResponse struct {
	SessionID string         `json:"sessionId"`
	Status    capture.Status `json:"status"`
}

type CaptureResponse struct {
	Photo  models.Photo   `json:"photo"`
	Status capture.Status `json:"status"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	Uptime          string `json:"uptime"`
	StoreDriver     string `json:"storeDriver"`
	CameraDriver    string `json:"cameraDriver"`
	CaptureSessions int    `json:"captureSessions"`
	Subscribers     int    `json:"subscribers"`
}
