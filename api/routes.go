package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/fieldlens-backend/storage"
)

// setupFrontendRoutes registers the routes used by the field app
func setupFrontendRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get(storage.BlobPathPrefix+"{ref}", handlers.blobHandler.getBlob())

	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		// Project Handler endpoints
		r.Get("/projects", handlers.projectHandler.getAllProjects())
		r.Post("/project", handlers.projectHandler.createProject())
		r.Get("/project/{projectID}", handlers.projectHandler.getProject())
		r.Put("/project/{projectID}", handlers.projectHandler.updateProject())
		r.Delete("/project/{projectID}", handlers.projectHandler.deleteProject())
		r.Get("/project/{projectID}/photos", handlers.projectHandler.getProjectPhotos())

		// Photo Handler endpoints
		r.Get("/photos", handlers.photoHandler.getAllPhotos())
		r.Post("/photo", handlers.photoHandler.createPhoto())
		r.Post("/photo/upload", handlers.photoHandler.uploadPhoto())
		r.Get("/photo/{photoID}", handlers.photoHandler.getPhoto())
		r.Put("/photo/{photoID}", handlers.photoHandler.updatePhoto())
		r.Delete("/photo/{photoID}", handlers.photoHandler.deletePhoto())

		// Annotation endpoints
		r.Get("/photo/{photoID}/annotations/draft", handlers.annotationHandler.getDraft())
		r.Post("/photo/{photoID}/annotations/draft", handlers.annotationHandler.addAnnotation())
		r.Delete("/photo/{photoID}/annotations/draft", handlers.annotationHandler.discardDraft())
		r.Post("/photo/{photoID}/annotations/save", handlers.annotationHandler.saveAnnotations())

		// Team Handler endpoints
		r.Get("/team-members", handlers.teamHandler.getAllMembers())
		r.Post("/team-member", handlers.teamHandler.inviteMember())
		r.Get("/team-member/{memberID}", handlers.teamHandler.getMember())
		r.Put("/team-member/{memberID}", handlers.teamHandler.updateMember())
		r.Delete("/team-member/{memberID}", handlers.teamHandler.removeMember())

		// Views
		r.Route("/views", func(r chi.Router) {
			r.Get("/dashboard", handlers.viewHandler.getDashboard())
			r.Get("/project/{projectID}", handlers.viewHandler.getProjectDetail())
			r.Get("/photo/{photoID}", handlers.viewHandler.getPhotoView())
			r.Get("/team", handlers.viewHandler.getTeamView())
		})
		r.Post("/report", handlers.viewHandler.generateReport())

		// Capture sessions
		r.Route("/capture/session", func(r chi.Router) {
			r.Post("/", handlers.captureHandler.openSession())
			r.Get("/{sessionID}", handlers.captureHandler.getSession())
			r.Delete("/{sessionID}", handlers.captureHandler.closeSession())
			r.Get("/{sessionID}/preview", handlers.captureHandler.preview())
			r.Post("/{sessionID}/capture", handlers.captureHandler.capturePhoto())
			r.Post("/{sessionID}/retake", handlers.captureHandler.retake())
		})
	})
}
