package handler

import (
	"errors"
	"net/http"

	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/validation"
)

func handleError(w http.ResponseWriter, r *http.Request, logger *logger.Logger, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: MessageInvalidData, Errors: verrs})
		return
	}

	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeMessage(w, http.StatusInternalServerError, MessageInternal)
}
