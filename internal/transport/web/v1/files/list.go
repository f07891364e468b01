package files

import (
	"net/http"
	"strconv"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// List godoc
// @Summary     List visible files
// @Description public + свои + internal + расшаренные + «ничейные» по ролям
// @Tags        files
// @Produce     json
// @Param       $top  query int false "limit"
// @Param       $skip query int false "offset"
// @Success     200 {array} object
// @Router      /files-manager/files [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "files.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	principal := domain.PrincipalFromCtx(r.Context())

	// $top/$skip применяются к итоговому объединению
	page := domain.Page{
		Top:  queryInt(r, "$top"),
		Skip: queryInt(r, "$skip"),
	}

	recs, err := h.Files.ListFor(r.Context(), principal, h.Policy, page)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "count", len(recs))
	v1.WriteJSON(w, r, http.StatusOK, h.filesOut(recs))
}

func queryInt(r *http.Request, key string) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
