package files

import (
	"log"

	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/upload"
)

type Handler struct {
	Log      *log.Logger
	Files    domain.FilesRepo
	Storage  domain.BlobStorage
	Cache    domain.Cache
	Pipeline *upload.Pipeline
	Policy   domain.AccessPolicy

	// Базовый путь монтирования (для preview-ссылок)
	Prefix string

	MetaTTL       int // секунд
	MaxUploadSize int64
}
