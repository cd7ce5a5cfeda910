package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackvision/vision/internal/auth"
	"github.com/hackvision/vision/internal/service"
)

func (h *ServiceHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	var form service.ReviewForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	job, err := h.reviewSrv.StartReview(r.Context(), user.ID, form)
	if err != nil {
		h.log.Errorw("failed to start review", "record_id", form.RecordID, "error", err)
		writeError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, JobToApi(job))
}

func (h *ServiceHandler) CreateBulkReview(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	var form service.BulkReviewForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	jobs, err := h.reviewSrv.BulkReview(r.Context(), user.ID, form)
	if err != nil {
		h.log.Errorw("failed to start bulk review", "records", len(form.RecordIDs), "error", err)
		writeError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, JobListToApi(jobs))
}

func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.reviewSrv.GetJob(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, JobToApi(job))
}

func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	jobs, err := h.reviewSrv.ListJobs(r.Context(), user.ID)
	if err != nil {
		h.log.Errorw("failed to list jobs", "error", err)
		writeError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, JobListToApi(jobs))
}

func (h *ServiceHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := h.reviewSrv.Cancel(r.Context(), user.ID, id); err != nil {
		writeError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServiceHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := h.reviewSrv.DeleteJob(r.Context(), user.ID, id); err != nil {
		writeError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServiceHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
