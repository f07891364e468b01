package s3

import (
	"context"
	"crypto/sha256"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/EgorLis/files-manager/internal/domain"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

type Storage struct {
	cl     *minio.Client
	bucket string
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Storage{cl: cl, bucket: cfg.Bucket, logger: logger}, nil
}

var _ domain.BlobStorage = (*Storage)(nil)

// Put заливает поток под свежим uuid-ключом и параллельно считает sha256.
// Ключ объекта и есть id будущей записи метаданных.
func (s *Storage) Put(ctx context.Context, r io.Reader, contentType string) (domain.BlobPutResult, error) {
	id := uuid.New()

	h := sha256.New()
	pr, pw := io.Pipe()
	mw := io.MultiWriter(h, pw)

	// копируем в пайп и считаем sha параллельно
	go func() {
		_, copyErr := io.Copy(mw, r)
		pw.CloseWithError(copyErr)
	}()

	info, err := s.cl.PutObject(ctx, s.bucket, id.String(), pr, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Printf("put %s failed: %v", id, err)
		return domain.BlobPutResult{}, err
	}

	s.logger.Printf("put %s ok (%d bytes)", id, info.Size)
	return domain.BlobPutResult{ID: id, Size: info.Size, SHA256: h.Sum(nil)}, nil
}

// Get открывает поток для чтения. Размер и content-type — из HEAD.
func (s *Storage) Get(ctx context.Context, id domain.FileID) (io.ReadCloser, int64, string, error) {
	info, err := s.cl.StatObject(ctx, s.bucket, id.String(), minio.StatObjectOptions{})
	if err != nil {
		return nil, 0, "", err
	}

	obj, err := s.cl.GetObject(ctx, s.bucket, id.String(), minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, "", err
	}
	return obj, info.Size, info.ContentType, nil
}

func (s *Storage) Delete(ctx context.Context, id domain.FileID) error {
	err := s.cl.RemoveObject(ctx, s.bucket, id.String(), minio.RemoveObjectOptions{})
	if err != nil {
		s.logger.Printf("delete %s failed: %v", id, err)
	}
	return err
}

func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Printf("bucket %q does not exist", s.bucket)
	}
	return nil
}
