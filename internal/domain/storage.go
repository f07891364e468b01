package domain

import (
	"context"
	"io"
)

// Результат записи блоба
type BlobPutResult struct {
	ID     FileID
	Size   int64
	SHA256 []byte
}

// Хранилище бинарного контента, адресуемое тем же id, что и метаданные.
// Поток пишется по мере чтения, без буферизации целиком.
type BlobStorage interface {
	// Put сохраняет поток под свежим id и возвращает id/размер/хэш
	Put(ctx context.Context, r io.Reader, contentType string) (BlobPutResult, error)
	// Get открывает поток для отдачи клиенту
	Get(ctx context.Context, id FileID) (rc io.ReadCloser, size int64, contentType string, err error)
	Delete(ctx context.Context, id FileID) error
	Ping(context.Context) error
}
