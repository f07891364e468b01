package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/files-manager/internal/config"
	"github.com/EgorLis/files-manager/internal/domain"
	"github.com/EgorLis/files-manager/internal/transport/web/v1/files"
	"github.com/EgorLis/files-manager/internal/transport/web/v1/health"
	"github.com/EgorLis/files-manager/internal/upload"
)

// Внешние зависимости сервера
type Deps struct {
	Files   domain.FilesRepo
	Storage domain.BlobStorage
	Cache   domain.Cache
	Tokens  domain.TokenParser
}

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, deps Deps) *Server {
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())
	filesLog := log.New(logger.Writer(), logger.Prefix()+"[files] ", logger.Flags())
	pipeLog := log.New(logger.Writer(), logger.Prefix()+"[upload] ", logger.Flags())

	policy := domain.AccessPolicy{UnassignedAccess: cfg.UnassignedAccess()}

	pipeline := &upload.Pipeline{
		Log:               pipeLog,
		Storage:           deps.Storage,
		Files:             deps.Files,
		Accept:            cfg.AcceptPatterns(),
		DefaultVisibility: domain.Visibility(cfg.FilesDefaultVisibility),
	}

	healthHandler := &health.Handler{DB: deps.Files, Cache: deps.Cache, Storage: deps.Storage, Log: healthLog}
	filesHandler := &files.Handler{
		Log:           filesLog,
		Files:         deps.Files,
		Storage:       deps.Storage,
		Cache:         deps.Cache,
		Pipeline:      pipeline,
		Policy:        policy,
		Prefix:        filesPrefix,
		MetaTTL:       cfg.FilesMetaTTL,
		MaxUploadSize: cfg.FilesMaxUploadSize,
	}

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           newRouter(healthHandler, filesHandler, deps.Tokens, cfg, logger),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
