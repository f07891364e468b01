package files

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// Входной грант: либо роль, либо пользователь; by/at клиента игнорируются
type shareIn struct {
	Role    string         `json:"role"`
	User    *domain.UserID `json:"user"`
	CanEdit bool           `json:"canEdit"`
}

// Share godoc
// @Summary     Share file
// @Description заменяет список грантов целиком; каждый штампуется сервером
// @Tags        files
// @Accept      json
// @Produce     json
// @Param       id path string true "file id"
// @Success     200 {object} object
// @Failure     400 {object} v1.Message
// @Failure     403 {object} v1.Message
// @Failure     404 {object} v1.Message
// @Router      /files-manager/files/{id}/share [post]
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	const op = "files.share"
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

	var in []shareIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logx.Error(h.Log, reqID, op, "parse body", err)
		v1.WriteMessage(w, r, http.StatusBadRequest, "INVALID_BODY")
		return
	}

	// гранты штампуются выдавшим и временем — серверная сторона,
	// клиентские by/at не принимаются
	now := time.Now().UTC()
	share := make([]domain.ShareEntry, 0, len(in))
	for _, s := range in {
		e := domain.ShareEntry{Role: s.Role, User: s.User, CanEdit: s.CanEdit, At: now}
		if principal != nil {
			by := principal.ID
			e.By = &by
		}
		share = append(share, e)
	}

	h.replaceShare(w, r, op, f, share)
}

// Unshare godoc
// @Summary     Stop file sharing
// @Tags        files
// @Produce     json
// @Param       id path string true "file id"
// @Success     200 {object} object
// @Failure     403 {object} v1.Message
// @Failure     404 {object} v1.Message
// @Router      /files-manager/files/{id}/unshare [post]
func (h *Handler) Unshare(w http.ResponseWriter, r *http.Request) {
	const op = "files.unshare"
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

	h.replaceShare(w, r, op, f, []domain.ShareEntry{})
}

// replaceShare — замена share-списка одной wholesale-записью метаданных:
// владелец и видимость переносятся из текущего снимка
func (h *Handler) replaceShare(w http.ResponseWriter, r *http.Request, op string, f domain.FileRecord, share []domain.ShareEntry) {
	reqID := mw.RequestIDFromCtx(r.Context())

	meta := f.Metadata
	meta.Share = share

	out, err := h.Files.Update(r.Context(), f.ID, domain.FileUpdate{Metadata: &meta})
	if err != nil {
		logx.Error(h.Log, reqID, op, "update failed", err, "file_id", f.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.invalidate(r, f.ID)
	logx.Info(h.Log, reqID, op, "ok", "file_id", f.ID, "grants", len(share))
	v1.WriteJSON(w, r, http.StatusOK, h.fileOut(out))
}
