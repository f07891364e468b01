package domain

import (
	"time"

	"github.com/google/uuid"
)

// Базовые идентификаторы
type UserID = uuid.UUID
type FileID = uuid.UUID

// Уровень видимости файла
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityInternal Visibility = "internal"
	VisibilityPublic   Visibility = "public"
)

// Valid — строго одно из трёх значений, без приведения регистра
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityInternal, VisibilityPublic:
		return true
	}
	return false
}

// ParseVisibility отклоняет всё, что не входит в enum
func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(s)
	if !v.Valid() {
		return "", ErrBadVisibility
	}
	return v, nil
}

// Грант на файл: либо роль, либо конкретный пользователь.
// by/at проставляются сервером, клиентские значения игнорируются.
type ShareEntry struct {
	Role    string    `json:"role,omitempty"`
	User    *UserID   `json:"user,omitempty"`
	CanEdit bool      `json:"canEdit"`
	By      *UserID   `json:"by,omitempty"`
	At      time.Time `json:"at"`
}

// Метаданные доступа. Owner == nil — «ничейный» файл.
// Share заменяется целиком (replace-the-list), поэлементного патча нет.
type FileMetadata struct {
	Owner      *UserID      `json:"owner,omitempty"`
	Visibility Visibility   `json:"visibility"`
	Share      []ShareEntry `json:"share"`
}

// Запись о файле. ID назначается при создании и одновременно является
// ключом блоба в хранилище.
type FileRecord struct {
	ID          FileID       `json:"id"`
	Filename    string       `json:"filename"`
	Length      int64        `json:"length"`
	ContentType string       `json:"contentType"`
	Checksum    string       `json:"checksum"` // sha256 hex
	Metadata    FileMetadata `json:"metadata"`
	CreatedAt   time.Time    `json:"created"`
	UpdatedAt   time.Time    `json:"updated"`
}

// Действующий субъект запроса. Отсутствие (nil) — аноним.
type Principal struct {
	ID    UserID
	Roles []string
}

// Частичное обновление записи: верхнеуровневые поля заменяются целиком,
// Metadata — wholesale, без deep-merge.
type FileUpdate struct {
	Filename *string
	Metadata *FileMetadata
}
