// Package api assembles the HTTP surface of the ledger service.
package api

import (
	"net/http"

	"github.com/dvloznov/chat-ledger/internal/api/handlers"
	"github.com/dvloznov/chat-ledger/internal/api/middleware"
	"github.com/dvloznov/chat-ledger/internal/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the routes need. Callback routes are only
// mounted when ChannelSecret is set.
type Deps struct {
	Processor     handlers.Processor
	Store         handlers.RecordLister
	Publisher     jobs.Publisher
	JobStore      jobs.JobStore
	ChannelSecret string
	Log           zerolog.Logger
}

// NewRouter builds the chi router with the middleware stack applied.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recovery(d.Log),
		middleware.RequestID,
		middleware.Logger(d.Log),
		middleware.CORS,
	)

	records := handlers.NewRecordsHandler(d.Processor, d.Store)
	r.Post("/record", records.CreateRecord)
	r.Get("/list", records.ListRecords)

	if d.ChannelSecret != "" {
		callback := handlers.NewCallbackHandler(d.ChannelSecret, d.Publisher)
		r.Post("/callback", callback.Callback)
	}

	if d.JobStore != nil {
		jobsHandler := handlers.NewJobsHandler(d.JobStore)
		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/jobs/{id}", jobsHandler.GetJob)
	}

	r.Get("/health", handlers.Health)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
