package domain

import "context"

// Токены выпускает внешняя система идентификации; здесь мы их
// только разбираем, чтобы получить субъекта с его ролями.
type TokenParser interface {
	Parse(ctx context.Context, raw string) (Principal, error)
}
