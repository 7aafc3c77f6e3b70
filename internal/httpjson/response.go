package httpjson

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
)

type JsonResponse struct {
	Status  string `json:"status"` // "success" or "error"
	Data    any    `json:"data,omitempty"`
	ErrCode string `json:"code,omitempty"`
	ErrMsg  string `json:"message,omitempty"`
}

func WriteSuccessJson(w http.ResponseWriter, data any) {
	WriteJson(w, http.StatusOK, data)
}

func WriteJson(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(JsonResponse{Status: "success", Data: data})
}

func WriteErrorJson(w http.ResponseWriter, errMsg string, statusCode int, errCode string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(JsonResponse{Status: "error", ErrMsg: errMsg, ErrCode: errCode})
}

// HandleError writes err as an error envelope. Only *srvcerror.Error
// messages reach the caller; anything else becomes a bare 500.
func HandleError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var se *srvcerror.Error
	if !errors.As(err, &se) {
		logger.Error("internal server error", "error", err)
		se = srvcerror.ErrInternalSE()
		WriteErrorJson(w, se.Error(), se.HttpStatusCode(), se.ErrorCode())
		return
	}
	if se.DebugInfo() != nil {
		logger.Warn("service error", "error", se, "code", se.ErrorCode(), "debug", se.DebugInfo())
	} else {
		logger.Warn("service error", "error", se, "code", se.ErrorCode())
	}
	if se.HttpStatusCode() == http.StatusInternalServerError {
		logger.Error("internal server error", "error", err)
	}
	WriteErrorJson(w, se.Error(), se.HttpStatusCode(), se.ErrorCode())
}
