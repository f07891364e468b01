package files

import (
	"encoding/json"
	"net/http"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// Тело PUT: частичное обновление изменяемых полей
type metaIn struct {
	Filename   *string `json:"filename"`
	Visibility *string `json:"visibility"`
}

// Meta godoc
// @Summary     Edit file metadata
// @Tags        files
// @Accept      json
// @Produce     json
// @Param       id path string true "file id"
// @Success     200 {object} object
// @Failure     400 {object} v1.Message
// @Failure     403 {object} v1.Message
// @Failure     404 {object} v1.Message
// @Router      /files-manager/files/{id} [put]
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	const op = "files.meta"
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

	var in metaIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logx.Error(h.Log, reqID, op, "parse body", err)
		v1.WriteMessage(w, r, http.StatusBadRequest, "INVALID_BODY")
		return
	}

	upd := domain.FileUpdate{Filename: in.Filename}
	if in.Visibility != nil {
		// на этом пути невалидная видимость — ошибка, не откат
		vis, err := domain.ParseVisibility(*in.Visibility)
		if err != nil {
			logx.Error(h.Log, reqID, op, "bad visibility", err, "value", *in.Visibility)
			v1.WriteDomainError(w, r, err)
			return
		}
		// metadata заменяется целиком: владелец и share переносятся
		// из текущего снимка
		meta := f.Metadata
		meta.Visibility = vis
		upd.Metadata = &meta
	}

	out, err := h.Files.Update(r.Context(), f.ID, upd)
	if err != nil {
		logx.Error(h.Log, reqID, op, "update failed", err, "file_id", f.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.invalidate(r, f.ID)
	logx.Info(h.Log, reqID, op, "ok", "file_id", f.ID)
	v1.WriteJSON(w, r, http.StatusOK, h.fileOut(out))
}
