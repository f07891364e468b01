package files

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// Download godoc
// @Summary     Download file bytes
// @Tags        files
// @Produce     octet-stream
// @Param       id path string true "file id"
// @Success     200 {file} []byte
// @Failure     403 {object} v1.Message
// @Failure     404 {object} v1.Message
// @Router      /files-manager/files/{id}/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, true)
}

// View godoc
// @Summary     View file inline
// @Tags        files
// @Param       id path string true "file id"
// @Success     200 {file} []byte
// @Failure     403 {object} v1.Message
// @Failure     404 {object} v1.Message
// @Router      /files-manager/files/{id}/view [get]
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, false)
}

// stream отдаёт байты из blob-хранилища без буферизации целиком.
// Авторизация — предусловие: проверяется здесь, до открытия потока.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, attachment bool) {
	const op = "files.stream"
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

	// r.Context() отменяется при разрыве соединения клиентом —
	// хэндл хранилища освобождается сразу, без поллинга
	rc, size, _, err := h.Storage.Get(r.Context(), f.ID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "storage get failed", err, "file_id", f.ID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}
	defer rc.Close()

	filename := url.PathEscape(f.Filename)
	if attachment {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	} else {
		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Content-Disposition", "inline; filename="+filename)
	}
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		logx.Error(h.Log, reqID, op, "stream interrupted", err, "file_id", f.ID)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "file_id", f.ID, "bytes", size)
}
