package files

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/logx"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	v1 "github.com/EgorLis/files-manager/internal/transport/web/v1"
)

// Тело JSON-запроса: base64 — скаляр или массив
type uploadIn struct {
	Base64     json.RawMessage `json:"base64"`
	Visibility string          `json:"visibility"`
}

// Upload godoc
// @Summary     Upload files
// @Description multipart-файлы и/или base64-нагрузки; результат по-элементный
// @Tags        files
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Param       files formData file false "files"
// @Param       base64 formData string false "base64 payload(s)"
// @Param       visibility formData string false "private|internal|public"
// @Success     201 {array} object
// @Failure     400 {object} v1.Message
// @Router      /files-manager/files [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "files.upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	principal := domain.PrincipalFromCtx(r.Context())

	var (
		base64Items []string
		visibility  string
		multipart   []domain.FileRecord
	)

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
			logx.Error(h.Log, reqID, op, "parse multipart", err)
			v1.WriteMessage(w, r, http.StatusBadRequest, "INVALID_MULTIPART")
			return
		}
		visibility = r.FormValue("visibility")
		base64Items = r.MultipartForm.Value["base64"]

		// настоящие multipart-файлы: фильтр по mime на границе транспорта,
		// отклонённые выбрасываются и записей не порождают.
		// MultipartForm.File — map, обходим поля по отсортированным именам,
		// чтобы порядок выдачи не плавал от запроса к запросу
		names := make([]string, 0, len(r.MultipartForm.File))
		for name := range r.MultipartForm.File {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, fh := range r.MultipartForm.File[name] {
				part, err := fh.Open()
				if err != nil {
					logx.Error(h.Log, reqID, op, "open multipart file", err, "filename", fh.Filename)
					continue
				}
				rec, ok, err := h.Pipeline.IngestMultipart(r.Context(), part, fh.Filename, principal)
				part.Close()
				if err != nil {
					logx.Error(h.Log, reqID, op, "ingest multipart file", err, "filename", fh.Filename)
					v1.WriteDomainError(w, r, domain.ErrUnexpected)
					return
				}
				if ok {
					multipart = append(multipart, rec)
				}
			}
		}

	default:
		var in uploadIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			logx.Error(h.Log, reqID, op, "parse json body", err)
			v1.WriteMessage(w, r, http.StatusBadRequest, "INVALID_BODY")
			return
		}
		visibility = in.Visibility
		base64Items = normalizeBase64(in.Base64)
	}

	res := h.Pipeline.Run(r.Context(), base64Items, multipart, visibility, principal)

	// по-элементные ошибки — данные; весь запрос успешен в любом случае
	out := make([]any, 0, len(res.Items))
	for _, it := range res.Items {
		if it.Record != nil {
			out = append(out, h.fileOut(*it.Record))
		} else {
			out = append(out, map[string]string{"error": it.Err})
		}
	}

	logx.Info(h.Log, reqID, op, "done",
		"items", len(out), "visibility_patched", res.VisibilityPatched)
	v1.WriteJSON(w, r, http.StatusCreated, out)
}

// normalizeBase64 — скаляр превращается в одноэлементную последовательность
func normalizeBase64(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return []string{one}
	}
	return nil
}
