package api

import "time"

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(projects projectManager, db pinger, maxUploadBytes int64, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(projects, maxUploadBytes),
		healthHandler:  newHealthHandler(db, startupTime),
	}
}
