package files

import (
	"net/http"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// GetOne godoc
// @Summary     Get file metadata
// @Tags        files
// @Produce     json
// @Param       id path string true "file id"
// @Success     200 {object} object
// @Failure     400 {object} v1.Message
// @Failure     403 {object} v1.Message
// @Failure     404 {object} v1.Message
// @Router      /files-manager/files/{id} [get]
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "files.get_one"
	reqID := mw.RequestIDFromCtx(r.Context())

	f, ok := h.fileByID(w, r, op)
	if !ok {
		return
	}

	principal := domain.PrincipalFromCtx(r.Context())
	if !h.Policy.CanView(f, principal) {
		logx.Info(h.Log, reqID, op, "view denied", "file_id", f.ID)
		v1.WriteMessage(w, r, http.StatusForbidden, domain.MsgUnauthorizedToView)
		return
	}

	v1.WriteJSON(w, r, http.StatusOK, h.fileOut(f))
}
