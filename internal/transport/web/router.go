package web

import (
	"log"
	"net/http"

	_ "github.com/EgorLis/files-manager/internal/docs"
	"github.com/EgorLis/files-manager/internal/transport/web/mw"
	"github.com/EgorLis/files-manager/internal/transport/web/v1/files"
	"github.com/EgorLis/files-manager/internal/transport/web/v1/health"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/EgorLis/files-manager/internal/config"
	"github.com/EgorLis/files-manager/internal/domain"
)

// Префикс файлового API, под ним же строятся preview-ссылки
const filesPrefix = "/files-manager/files"

func newRouter(hh *health.Handler, fh *files.Handler, tokens domain.TokenParser, cfg *config.Config, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /v1/healthz", hh.Liveness)
	mux.HandleFunc("GET /v1/readyz", hh.Readiness)

	// files
	mux.HandleFunc("POST "+filesPrefix, limitBody(cfg.FilesMaxUploadSize, fh.Upload))
	mux.HandleFunc("GET "+filesPrefix, fh.List)
	mux.HandleFunc("GET "+filesPrefix+"/{id}", fh.GetOne)
	mux.HandleFunc("PUT "+filesPrefix+"/{id}", fh.Meta)
	mux.HandleFunc("DELETE "+filesPrefix+"/{id}", fh.Delete)
	mux.HandleFunc("GET "+filesPrefix+"/{id}/download", fh.Download)
	mux.HandleFunc("GET "+filesPrefix+"/{id}/view", fh.View)
	mux.HandleFunc("POST "+filesPrefix+"/{id}/share", fh.Share)
	mux.HandleFunc("POST "+filesPrefix+"/{id}/unshare", fh.Unshare)

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mw.OptionalAuth(tokens, mux)))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
