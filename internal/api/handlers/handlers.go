package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/chat-ledger/internal/api/middleware"
	"github.com/dvloznov/chat-ledger/internal/domain"
	"github.com/dvloznov/chat-ledger/internal/jobs"
	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies for /record.
const maxBodyBytes = 64 << 10

// Processor runs one message through the record pipeline.
type Processor interface {
	Process(ctx context.Context, message string) pipeline.Outcome
}

// RecordLister lists committed records.
type RecordLister interface {
	List(ctx context.Context) ([]domain.Record, error)
}

// RecordsHandler handles the ledger endpoints.
type RecordsHandler struct {
	processor Processor
	store     RecordLister
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(processor Processor, store RecordLister) *RecordsHandler {
	return &RecordsHandler{
		processor: processor,
		store:     store,
	}
}

type recordRequest struct {
	Message *string `json:"message"`
}

type recordResponse struct {
	Status string         `json:"status"`
	Data   *domain.Record `json:"data"`
}

type rejectionResponse struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// CreateRecord handles POST /record
func (h *RecordsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil || req.Message == nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out := h.processor.Process(ctx, *req.Message)
	reply := pipeline.Compose(out)

	switch out.Kind {
	case pipeline.OutcomeCommitted:
		rec := out.Record
		middleware.WriteJSON(w, http.StatusOK, recordResponse{Status: "ok", Data: &rec})
	case pipeline.OutcomeRejected:
		middleware.WriteJSON(w, http.StatusBadRequest, rejectionResponse{Error: reply, Raw: out.RawOutput})
	case pipeline.OutcomeStoreFailure:
		middleware.WriteError(w, http.StatusInternalServerError, reply)
	default:
		middleware.WriteError(w, http.StatusServiceUnavailable, reply)
	}
}

// ListRecords handles GET /list
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.store.List(ctx)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Failed to list records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list records")
		return
	}

	if records == nil {
		records = []domain.Record{}
	}
	middleware.WriteJSON(w, http.StatusOK, records)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetJob handles GET /jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
