package mw

import (
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/files-manager/internal/transport/web/logx"
)

// Logging — итоговая строка на каждый запрос в общем key=value формате
// logx, с тем же req_id, что и в строках хэндлеров
func Logging(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromCtx(r.Context())
			start := time.Now()

			mw := &metaWriter{ResponseWriter: w}

			next.ServeHTTP(mw, r)

			logx.Info(l, reqID, "http.request", r.Method+" "+r.URL.Path,
				"status", mw.status, "size", mw.size,
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}
