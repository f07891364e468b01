package mw

import (
	"net/http"
	"strings"

	"github.com/EgorLis/files-manager/internal/domain"
)

// OptionalAuth разбирает токен, если он есть, и кладёт субъекта в контекст.
// Запросы без валидного токена проходят дальше анонимно — решение о
// доступе принимается на уровне конкретного файла.
func OptionalAuth(parser domain.TokenParser, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			next.ServeHTTP(w, r) // без субъекта
			return
		}
		p, err := parser.Parse(r.Context(), raw)
		if err != nil {
			next.ServeHTTP(w, r) // не валидный — просто идём как аноним
			return
		}
		next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
	})
}

func tokenFromRequest(r *http.Request) string {
	// 1) Authorization: Bearer ...
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	// 2) URL-параметр token (для прямых ссылок на view/download)
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return ""
}
