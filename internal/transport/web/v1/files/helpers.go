package files

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// Сериализация записи наружу: сама запись + виртуальная preview-ссылка
type fileJSON struct {
	domain.FileRecord
	Preview string `json:"preview"`
}

func (h *Handler) fileOut(f domain.FileRecord) fileJSON {
	return fileJSON{FileRecord: f, Preview: h.Prefix + "/" + f.ID.String() + "/view"}
}

func (h *Handler) filesOut(recs []domain.FileRecord) []fileJSON {
	out := make([]fileJSON, 0, len(recs))
	for _, f := range recs {
		out = append(out, h.fileOut(f))
	}
	return out
}

// fileByID — аналог param-middleware: разбирает id из пути, достаёт запись
// (через кеш) и сам пишет 400/404. ok=false — ответ уже отправлен.
func (h *Handler) fileByID(w http.ResponseWriter, r *http.Request, op string) (domain.FileRecord, bool) {
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad file id", err, "raw", r.PathValue("id"))
		v1.WriteMessage(w, r, http.StatusBadRequest, domain.MsgIDNotValid)
		return domain.FileRecord{}, false
	}

	// кеш метаданных
	if b, cerr := h.Cache.Get(r.Context(), domain.CacheKeyFileMeta(id)); cerr == nil && len(b) > 0 {
		var cached domain.FileRecord
		if jerr := json.Unmarshal(b, &cached); jerr == nil {
			return cached, true
		}
	}

	f, err := h.Files.ByID(r.Context(), id)
	if err != nil {
		// 404 — только про отсутствие записи; сбой репозитория — это 5xx,
		// клиенту нельзя говорить «файла нет» из-за лежащей базы
		if errors.Is(err, domain.ErrNotFound) {
			logx.Error(h.Log, reqID, op, "file not found", err, "file_id", id)
			v1.WriteMessage(w, r, http.StatusNotFound, domain.MsgFileNotFound)
			return domain.FileRecord{}, false
		}
		logx.Error(h.Log, reqID, op, "repo failure", err, "file_id", id)
		v1.WriteDomainError(w, r, err)
		return domain.FileRecord{}, false
	}

	h.cacheFile(r, f)
	return f, true
}

func (h *Handler) cacheFile(r *http.Request, f domain.FileRecord) {
	if buf, err := json.Marshal(f); err == nil {
		_ = h.Cache.Set(r.Context(), domain.CacheKeyFileMeta(f.ID), buf, h.MetaTTL)
	}
}

func (h *Handler) invalidate(r *http.Request, id domain.FileID) {
	_ = h.Cache.Del(r.Context(), domain.CacheKeyFileMeta(id))
}
