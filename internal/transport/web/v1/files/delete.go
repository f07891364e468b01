package files

import (
	"net/http"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// Delete godoc
// @Summary     Remove file
// @Tags        files
// @Param       id path string true "file id"
// @Success     204
// @Failure     400 {object} v1.Message
// @Failure     403 {object} v1.Message
// @Failure     404 {object} v1.Message
// @Router      /files-manager/files/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "files.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	f, ok := h.fileByID(w, r, op)
	if !ok {
		return
	}

	principal := domain.PrincipalFromCtx(r.Context())
	if !h.Policy.CanEdit(f, principal) {
		logx.Info(h.Log, reqID, op, "edit denied", "file_id", f.ID)
		v1.WriteMessage(w, r, http.StatusForbidden, domain.MsgUnauthorizedToEdit)
		return
	}

	// блоб и метаданные удаляются вместе; неудача удаления блоба ответ
	// не меняет (хранилище чистит только ссылку), неудача удаления
	// метаданных — единственная ошибка, которую видит клиент
	if err := h.Storage.Delete(r.Context(), f.ID); err != nil {
		logx.Error(h.Log, reqID, op, "blob delete failed", err, "file_id", f.ID)
	}

	if err := h.Files.Delete(r.Context(), f.ID); err != nil {
		logx.Error(h.Log, reqID, op, "metadata delete failed", err, "file_id", f.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.invalidate(r, f.ID)
	logx.Info(h.Log, reqID, op, "ok", "file_id", f.ID)
	w.WriteHeader(http.StatusNoContent)
}
