package api

import (
	"github.com/rpupo63/fieldlens-backend/config"
	"github.com/rpupo63/fieldlens-backend/events"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, c map[string]string, defaultUser string) *routeHandlers {
	var publisher events.Publisher = events.Nop{}
	if deps.Hub != nil {
		publisher = deps.Hub
	}

	var reports ReportRecorder
	if deps.Metrics != nil {
		reports = deps.Metrics
	}

	maxUpload := int64(config.GetInt(c, "MAX_UPLOAD_MB", 20)) << 20

	return &routeHandlers{
		projectHandler:    newProjectHandler(deps.Services.Projects, deps.Services.Photos),
		photoHandler:      newPhotoHandler(deps.Services.Photos, deps.Store, deps.Overlay, maxUpload),
		teamHandler:       newTeamHandler(deps.Services.Team),
		annotationHandler: newAnnotationHandler(deps.Overlay, defaultUser),
		captureHandler:    newCaptureHandler(deps.Sessions, publisher),
		viewHandler:       newViewHandler(deps.Views, reports, publisher),
		blobHandler:       newBlobHandler(deps.Blobs),
	}
}
