package submission

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"

	model "github.com/zhouzirui/submission-desk/backend/internal/model/submission"
	submissionService "github.com/zhouzirui/submission-desk/backend/internal/service/submission"
	"github.com/zhouzirui/submission-desk/backend/pkg/utils"
)

const (
	msgCreated     = "Submission created"
	msgUpdated     = "Submission updated"
	msgDeleted     = "Submission deleted"
	msgNotFound    = "Submission not found"
	msgUnavailable = "Storage unavailable"
	msgInvalidBody = "invalid JSON body"
	msgTooLarge    = "request body too large"
)

// maxBodyBytes caps request bodies at 100kb.
const maxBodyBytes = 100 << 10

// Service is what the handler needs from the submission service.
type Service interface {
	Create(ctx context.Context, sub model.Submission) error
	Read(ctx context.Context, index int) (model.Submission, error)
	Update(ctx context.Context, sub model.Submission) error
	Delete(ctx context.Context, name string) (int, error)
	List(ctx context.Context) ([]model.Submission, error)
}

// Handler exposes submissions over HTTP.
type Handler struct {
	svc Service
}

// New creates the submission handler.
func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the submission endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ping", h.handlePing)
	r.Post("/submit", h.handleSubmit)
	r.Get("/read", h.handleRead)
	r.Post("/update", h.handleUpdate)
	r.Post("/delete", h.handleDelete)
	r.Get("/submissions", h.handleList)
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, true)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	if err := h.svc.Create(r.Context(), sub); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondText(w, http.StatusCreated, msgCreated)
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		utils.RespondText(w, http.StatusNotFound, msgNotFound)
		return
	}
	httplog.LogEntrySetField(r.Context(), "index", slog.IntValue(index))

	sub, err := h.svc.Read(r.Context(), index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	if err := h.svc.Update(r.Context(), sub); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondText(w, http.StatusOK, msgUpdated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	name, _ := payload[model.FieldName].(string)
	httplog.LogEntrySetField(r.Context(), "submission_name", slog.StringValue(name))

	if _, err := h.svc.Delete(r.Context(), name); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondText(w, http.StatusOK, msgDeleted)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

// decodeSubmission reads and validates a full submission body. On failure the
// response has already been written.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (model.Submission, bool) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return model.Submission{}, false
	}
	if errs := model.Validate(payload); len(errs) > 0 {
		utils.RespondErrors(w, http.StatusBadRequest, errs)
		return model.Submission{}, false
	}
	sub := model.FromPayload(payload)
	httplog.LogEntrySetField(r.Context(), "submission_name", slog.StringValue(sub.Name))
	return sub, true
}

// decodePayload accepts a single JSON object of at most maxBodyBytes. An empty
// body counts as an empty object so it fails validation field by field.
func decodePayload(w http.ResponseWriter, r *http.Request) (model.Payload, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	var payload model.Payload
	err := dec.Decode(&payload)
	if errors.Is(err, io.EOF) {
		return model.Payload{}, true
	}
	if err == nil && payload != nil {
		// Anything after the object makes the body invalid.
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return payload, true
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		utils.RespondErrors(w, http.StatusRequestEntityTooLarge, []string{msgTooLarge})
		return nil, false
	}
	utils.RespondErrors(w, http.StatusBadRequest, []string{msgInvalidBody})
	return nil, false
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, submissionService.ErrNotFound):
		utils.RespondText(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, submissionService.ErrStorage):
		utils.RespondText(w, http.StatusInternalServerError, msgUnavailable)
	default:
		utils.RespondText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
