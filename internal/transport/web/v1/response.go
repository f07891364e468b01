package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
)

// Сообщение об ошибке наружу: {"message": "<KEY>"}
type Message struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", mw.RequestIDFromCtx(r.Context()))
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, Message{Message: msg})
}

// MapDomainError решает HTTP-статус + ключ сообщения
func MapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrBadVisibility):
		return http.StatusBadRequest, "INVALID_VISIBILITY"
	case errors.Is(err, domain.ErrBadParams):
		return http.StatusBadRequest, domain.MsgIDNotValid
	case errors.Is(err, domain.ErrForbiddenView):
		return http.StatusForbidden, domain.MsgUnauthorizedToView
	case errors.Is(err, domain.ErrForbiddenEdit):
		return http.StatusForbidden, domain.MsgUnauthorizedToEdit
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.MsgFileNotFound
	default:
		return http.StatusInternalServerError, "UNEXPECTED"
	}
}

func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := MapDomainError(err)
	WriteMessage(w, r, status, msg)
}
