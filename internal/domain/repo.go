package domain

import "context"

// Пагинация списка: $top — лимит, $skip — смещение.
// Ноль/отрицательное значение — «не задано».
type Page struct {
	Top  int
	Skip int
}

// Репозиторий метаданных файлов. Ключ записи == ключ блоба.
type FilesRepo interface {
	Close()
	Ping(context.Context) error

	// Create валидирует visibility до вставки (ErrBadVisibility).
	Create(ctx context.Context, rec FileRecord) (FileRecord, error)
	ByID(ctx context.Context, id FileID) (FileRecord, error)
	ByIDs(ctx context.Context, ids []FileID) ([]FileRecord, error)

	// ListFor — объединение: public + (для аутентифицированных: свои,
	// internal, расшаренные лично) + расшаренные на роли + «ничейные»,
	// если роли пересекаются со списком unassigned-access.
	// Пагинация применяется к итоговому объединению.
	ListFor(ctx context.Context, p *Principal, ap AccessPolicy, page Page) ([]FileRecord, error)

	// Update заменяет переданные верхнеуровневые поля целиком;
	// Metadata — wholesale (см. контракт FileUpdate).
	Update(ctx context.Context, id FileID, upd FileUpdate) (FileRecord, error)

	// BulkSetVisibility — best-effort: ошибка не должна валить вызывающую
	// операцию.
	BulkSetVisibility(ctx context.Context, ids []FileID, v Visibility) error

	Delete(ctx context.Context, id FileID) error
}
