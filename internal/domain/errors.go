package domain

import "errors"

// Бизнес-ошибки (маппятся на HTTP коды в транспортном слое)
var (
	ErrBadParams     = errors.New("bad_params")           // 400
	ErrBadVisibility = errors.New("bad_visibility")       // 400
	ErrForbiddenView = errors.New("unauthorized_to_view") // 403
	ErrForbiddenEdit = errors.New("unauthorized_to_edit") // 403
	ErrNotFound      = errors.New("not_found")            // 404
	ErrUnexpected    = errors.New("unexpected")           // 500
)

// Ключи сообщений наружу
const (
	MsgUnauthorizedToView = "UNAUTHORIZED_TO_VIEW"
	MsgUnauthorizedToEdit = "UNAUTHORIZED_TO_EDIT"
	MsgFileNotFound       = "FILE_NOT_FOUND"
	MsgIDNotValid         = "ID not valid"

	// Мягкие по-элементные ошибки загрузки (данные, не исключения)
	MsgFileWithNoExt   = "FILE_WITH_NO_EXT"
	MsgMimeNotAccepted = "MIME_NOT_ACCEPTED"
)
