package v1

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hackvision/vision/internal/service"
	"github.com/hackvision/vision/pkg/requestid"
)

// ServiceHandler exposes the review service over HTTP.
type ServiceHandler struct {
	reviewSrv *service.ReviewService
	log       *zap.SugaredLogger
}

func NewServiceHandler(reviewSrv *service.ReviewService) *ServiceHandler {
	return &ServiceHandler{
		reviewSrv: reviewSrv,
		log:       zap.S().Named("review_handler"),
	}
}

type ErrorResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message, RequestID: requestid.FromRequest(r)})
}

// serviceErrorStatus maps typed service errors to HTTP statuses.
func serviceErrorStatus(err error) int {
	switch err.(type) {
	case *service.ErrJobNotFound:
		return http.StatusNotFound
	case *service.ErrJobAccessForbidden:
		return http.StatusForbidden
	case *service.ErrJobNotRunning, *service.ErrJobRunning:
		return http.StatusConflict
	case *service.ErrInvalidForm, *service.ErrTooManyRecords:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
