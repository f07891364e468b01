package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"io"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/EgorLis/files-manager/internal/domain"
)

// заголовка в 3КБ хватает всем сниффер-магии mimetype
const sniffLen = 3072

// Pipeline принимает сырые полезные нагрузки (base64 и multipart),
// валидирует каждую независимо и раскладывает по blob-хранилищу
// и репозиторию метаданных.
type Pipeline struct {
	Log     *log.Logger
	Storage domain.BlobStorage
	Files   domain.FilesRepo

	// Маски принимаемых mime ("image/*", "application/pdf")
	Accept []string
	// Видимость по умолчанию для новых записей (из конфигурации)
	DefaultVisibility domain.Visibility
}

// Item — результат одного элемента партии: запись либо мягкая ошибка.
// Ошибки элементов — данные, они не валят соседей и весь запрос.
type Item struct {
	Record *domain.FileRecord
	Err    string
}

// Result — итог загрузки. VisibilityPatched=false означает, что записи
// созданы, но массовый патч видимости не прошёл — ответ всё равно успешный
// (доступность важнее согласованности видимости).
type Result struct {
	Items             []Item
	VisibilityPatched bool
}

// результат одного конкурентного воркера, джойнится по индексу
type b64Done struct {
	id  domain.FileID
	err string
}

// Run обрабатывает партию: элементы base64 — конкурентно и независимо,
// multipart-записи приходят уже созданными (фильтр отработал на границе
// транспорта). Порядок выдачи детерминирован: успехи base64 (в порядке
// входа), ошибки base64, multipart.
func (p *Pipeline) Run(ctx context.Context, base64Items []string, multipart []domain.FileRecord, requestedVisibility string, principal *domain.Principal) Result {
	// невалидная/пустая видимость здесь — молчаливый откат к private,
	// в отличие от пути обновления метаданных, где это ошибка
	vis, err := domain.ParseVisibility(requestedVisibility)
	if err != nil {
		vis = domain.VisibilityPrivate
	}

	done := make([]b64Done, len(base64Items))

	var wg sync.WaitGroup
	for i, payload := range base64Items {
		wg.Add(1)
		go func(i int, payload string) {
			defer wg.Done()
			done[i] = p.putBase64(ctx, payload, vis, principal)
		}(i, payload)
	}
	wg.Wait()

	// успешные id → полные записи одним запросом
	var okIDs []domain.FileID
	for _, d := range done {
		if d.err == "" {
			okIDs = append(okIDs, d.id)
		}
	}
	records, err := p.Files.ByIDs(ctx, okIDs)
	if err != nil {
		p.Log.Printf("resolve created ids: %v", err)
	}
	byID := make(map[domain.FileID]domain.FileRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	res := Result{Items: make([]Item, 0, len(base64Items)+len(multipart))}

	for _, d := range done {
		if d.err != "" {
			continue
		}
		if rec, ok := byID[d.id]; ok {
			rec := rec
			res.Items = append(res.Items, Item{Record: &rec})
		} else {
			res.Items = append(res.Items, Item{Err: domain.MsgFileNotFound})
		}
	}
	for _, d := range done {
		if d.err != "" {
			res.Items = append(res.Items, Item{Err: d.err})
		}
	}
	for i := range multipart {
		res.Items = append(res.Items, Item{Record: &multipart[i]})
	}

	// массовый патч видимости — best-effort поверх всего созданного
	patchIDs := append([]domain.FileID{}, okIDs...)
	for _, rec := range multipart {
		patchIDs = append(patchIDs, rec.ID)
	}
	res.VisibilityPatched = true
	if err := p.Files.BulkSetVisibility(ctx, patchIDs, vis); err != nil {
		p.Log.Printf("bulk visibility patch failed (upload still ok): %v", err)
		res.VisibilityPatched = false
	} else if len(patchIDs) > 0 {
		for i := range res.Items {
			if res.Items[i].Record != nil {
				res.Items[i].Record.Metadata.Visibility = vis
			}
		}
	}

	return res
}

// putBase64 обрабатывает один элемент: декодирует, сниффит тип по байтам
// (клиентским именам и mime не верим), фильтрует и стримит в хранилище.
func (p *Pipeline) putBase64(ctx context.Context, payload string, vis domain.Visibility, principal *domain.Principal) b64Done {
	r := base64.NewDecoder(base64.StdEncoding, strings.NewReader(payload))

	head := make([]byte, sniffLen)
	n, readErr := io.ReadFull(r, head)
	head = head[:n]

	mtype := mimetype.Detect(head)
	ext := mtype.Extension()
	// octet-stream и text/plain — fallback-типы сниффера, не магия;
	// расширение по содержимому в этих случаях не выяснено
	if ext == "" || mtype.Is("text/plain") {
		return b64Done{err: domain.MsgFileWithNoExt}
	}

	mime, _, _ := strings.Cut(mtype.String(), ";")
	mime = strings.TrimSpace(mime)
	if !p.AcceptsMime(mime) {
		return b64Done{err: domain.MsgMimeNotAccepted + ": " + mime}
	}

	// хвост декодера пристыковываем к уже прочитанному заголовку;
	// при битом base64 берём только то, что удалось декодировать
	// (снисходительно, как Buffer.from(..., 'base64'))
	var body io.Reader = bytes.NewReader(head)
	if readErr == nil {
		body = io.MultiReader(bytes.NewReader(head), r)
	}

	put, err := p.Storage.Put(ctx, body, mime)
	if err != nil {
		p.Log.Printf("base64 put: %v", err)
		return b64Done{err: err.Error()}
	}

	rec := domain.FileRecord{
		ID:          put.ID,
		Filename:    put.ID.String() + ext,
		Length:      put.Size,
		ContentType: mime,
		Checksum:    hex.EncodeToString(put.SHA256),
		Metadata: domain.FileMetadata{
			Visibility: vis,
			Share:      []domain.ShareEntry{},
		},
	}
	if principal != nil {
		owner := principal.ID
		rec.Metadata.Owner = &owner
	}

	if _, err := p.Files.Create(ctx, rec); err != nil {
		p.Log.Printf("base64 create record: %v", err)
		// блоб без метаданных бесполезен — подчистим
		_ = p.Storage.Delete(ctx, put.ID)
		return b64Done{err: err.Error()}
	}
	return b64Done{id: put.ID}
}

// IngestMultipart — приём одного multipart-файла на границе транспорта:
// фильтр по сниффнутому mime применяется до записи, отклонённый файл
// просто выбрасывается (ok=false) и записи не порождает.
func (p *Pipeline) IngestMultipart(ctx context.Context, r io.Reader, filename string, principal *domain.Principal) (domain.FileRecord, bool, error) {
	head := make([]byte, sniffLen)
	n, readErr := io.ReadFull(r, head)
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return domain.FileRecord{}, false, readErr
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	mime, _, _ := strings.Cut(mtype.String(), ";")
	mime = strings.TrimSpace(mime)
	if !p.AcceptsMime(mime) {
		p.Log.Printf("multipart %q dropped: mime %s not accepted", filename, mime)
		return domain.FileRecord{}, false, nil
	}

	put, err := p.Storage.Put(ctx, io.MultiReader(bytes.NewReader(head), r), mime)
	if err != nil {
		return domain.FileRecord{}, false, err
	}

	rec := domain.FileRecord{
		ID:          put.ID,
		Filename:    filename,
		Length:      put.Size,
		ContentType: mime,
		Checksum:    hex.EncodeToString(put.SHA256),
		Metadata: domain.FileMetadata{
			Visibility: p.DefaultVisibility,
			Share:      []domain.ShareEntry{},
		},
	}
	if principal != nil {
		owner := principal.ID
		rec.Metadata.Owner = &owner
	}

	created, err := p.Files.Create(ctx, rec)
	if err != nil {
		_ = p.Storage.Delete(ctx, put.ID)
		return domain.FileRecord{}, false, err
	}
	return created, true, nil
}

// AcceptsMime сверяет mime с масками допуска (glob в стиле minimatch)
func (p *Pipeline) AcceptsMime(mime string) bool {
	for _, pattern := range p.Accept {
		if ok, _ := path.Match(pattern, mime); ok {
			return true
		}
	}
	return false
}
