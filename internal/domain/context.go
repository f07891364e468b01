package domain

import "context"

// Ключ для хранения субъекта запроса в контексте HTTP-запроса
type ctxKey int

const principalCtxKey ctxKey = 1

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromCtx возвращает nil для анонимного запроса
func PrincipalFromCtx(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalCtxKey).(Principal); ok {
		return &p
	}
	return nil
}
