package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/IhorD12/authcore-backend-service/internal/dtos"
	"github.com/IhorD12/authcore-backend-service/internal/httputil"
)

type HealthHandler interface {
	Check(res http.ResponseWriter, req *http.Request)
}

type health struct {
	startTime time.Time
}

func NewHealthHandler(startTime time.Time) HealthHandler {
	return &health{
		startTime: startTime,
	}
}

func (h health) Check(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := log.Ctx(ctx).With().Logger()

	resBody := dtos.HealthResponse{
		Uptime:    time.Since(h.startTime).Seconds(),
		Message:   "OK",
		Timestamp: time.Now().UnixMilli(),
	}

	params := httputil.SendSuccessResponseParams{
		StatusCode: http.StatusOK,
		ResBody:    resBody,
	}

	if err := httputil.SendSuccessResponse(res, params); err != nil {
		logger.Error().Err(err).Caller().Int("status_code", http.StatusInternalServerError).Msg("failed to send success response")
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
