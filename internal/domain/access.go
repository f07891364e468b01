package domain

// Роль анонимного запроса
const RoleGuest = "guest"

// AccessPolicy — процессная конфигурация доступа: список ролей, которым
// разрешены «ничейные» файлы. Загружается один раз, дальше read-only.
type AccessPolicy struct {
	UnassignedAccess []string
}

// EffectiveRoles — роли субъекта; аноним и субъект без ролей
// работают как {guest}.
func EffectiveRoles(p *Principal) []string {
	if p == nil || len(p.Roles) == 0 {
		return []string{RoleGuest}
	}
	return p.Roles
}

// CanView решает право просмотра. Чистая функция над снимком записи.
//
// Порядок правил важен: public раньше всего, «ничейные» файлы
// обрабатываются отдельным списком ролей и не доходят до share.
func (ap AccessPolicy) CanView(f FileRecord, p *Principal) bool {
	roles := EffectiveRoles(p)

	if f.Metadata.Visibility == VisibilityPublic {
		return true
	}

	if f.Metadata.Owner == nil {
		return intersects(ap.UnassignedAccess, roles)
	}

	if p != nil && p.ID == *f.Metadata.Owner {
		return true
	}

	if p != nil && f.Metadata.Visibility == VisibilityInternal {
		return true
	}

	for _, e := range f.Metadata.Share {
		if shareMatches(e, p, roles) {
			return true
		}
	}
	return false
}

// CanEdit решает право редактирования. Edit — строгое подмножество view:
// потеря права просмотра автоматически отнимает редактирование.
func (ap AccessPolicy) CanEdit(f FileRecord, p *Principal) bool {
	if !ap.CanView(f, p) {
		return false
	}

	if f.Metadata.Owner != nil && p != nil && p.ID == *f.Metadata.Owner {
		return true
	}

	roles := EffectiveRoles(p)
	for _, e := range f.Metadata.Share {
		if e.CanEdit && shareMatches(e, p, roles) {
			return true
		}
	}
	return false
}

// Грант с ролью матчится по ролям субъекта; грант с пользователем —
// только по id аутентифицированного. Пустой грант не матчится никогда.
func shareMatches(e ShareEntry, p *Principal, roles []string) bool {
	if e.Role != "" {
		for _, r := range roles {
			if r == e.Role {
				return true
			}
		}
		return false
	}
	if e.User != nil && p != nil {
		return *e.User == p.ID
	}
	return false
}

// HasUnassignedAccess — пересекаются ли роли субъекта со списком
// unassigned-access (нужно и списку файлов в репозитории)
func (ap AccessPolicy) HasUnassignedAccess(p *Principal) bool {
	return intersects(ap.UnassignedAccess, EffectiveRoles(p))
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
