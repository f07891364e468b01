package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/EgorLis/files-manager/internal/domain"
)

const fileCols = "id, filename, length, content_type, checksum, owner_id, visibility, share, created_at, updated_at"

func (r *PGRepo) filesTable() string {
	return fmt.Sprintf("%s.files", schemaName)
}

type fileRow interface {
	Scan(dest ...any) error
}

func scanFile(row fileRow) (domain.FileRecord, error) {
	var (
		f        domain.FileRecord
		shareRaw []byte
	)
	if err := row.Scan(
		&f.ID, &f.Filename, &f.Length, &f.ContentType, &f.Checksum,
		&f.Metadata.Owner, &f.Metadata.Visibility, &shareRaw,
		&f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return domain.FileRecord{}, err
	}
	if len(shareRaw) > 0 {
		if err := json.Unmarshal(shareRaw, &f.Metadata.Share); err != nil {
			return domain.FileRecord{}, err
		}
	}
	if f.Metadata.Share == nil {
		f.Metadata.Share = []domain.ShareEntry{}
	}
	return f, nil
}

func (r *PGRepo) Create(ctx context.Context, rec domain.FileRecord) (domain.FileRecord, error) {
	if !rec.Metadata.Visibility.Valid() {
		return domain.FileRecord{}, domain.ErrBadVisibility
	}
	share := rec.Metadata.Share
	if share == nil {
		share = []domain.ShareEntry{}
	}
	shareRaw, err := json.Marshal(share)
	if err != nil {
		return domain.FileRecord{}, err
	}

	q := r.qb().Insert(r.filesTable()).
		Columns("id", "filename", "length", "content_type", "checksum", "owner_id", "visibility", "share").
		Values(rec.ID, rec.Filename, rec.Length, rec.ContentType, rec.Checksum,
			rec.Metadata.Owner, string(rec.Metadata.Visibility), shareRaw).
		Suffix("RETURNING " + fileCols)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("Create", sqlStr, args)

	start := time.Now()
	out, err := scanFile(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("Create scan error after %s: %v", time.Since(start), err)
		return domain.FileRecord{}, err
	}
	r.logger.Printf("Create ok in %s id=%s filename=%q", time.Since(start), out.ID, out.Filename)
	return out, nil
}

func (r *PGRepo) ByID(ctx context.Context, id domain.FileID) (domain.FileRecord, error) {
	q := r.qb().Select(fileCols).From(r.filesTable()).Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("ByID", sqlStr, args)

	start := time.Now()
	out, err := scanFile(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FileRecord{}, domain.ErrNotFound
		}
		r.logger.Printf("ByID scan error after %s: %v", time.Since(start), err)
		return domain.FileRecord{}, err
	}
	r.logger.Printf("ByID ok in %s id=%s", time.Since(start), out.ID)
	return out, nil
}

// ByIDs возвращает найденные записи в порядке списка ids; отсутствующие
// просто пропускаются.
func (r *PGRepo) ByIDs(ctx context.Context, ids []domain.FileID) ([]domain.FileRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.qb().Select(fileCols).From(r.filesTable()).Where(sq.Eq{"id": ids})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("ByIDs", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("ByIDs query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	byID := make(map[domain.FileID]domain.FileRecord, len(ids))
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			r.logger.Printf("ByIDs scan error: %v", err)
			return nil, err
		}
		byID[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("ByIDs rows error: %v", err)
		return nil, err
	}

	out := make([]domain.FileRecord, 0, len(byID))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, f)
		}
	}
	r.logger.Printf("ByIDs ok in %s count=%d", time.Since(start), len(out))
	return out, nil
}

// Выдаёт файлы, видимые субъекту: public + свои + internal + расшаренные
// (лично и на роли) + «ничейные» для ролей из unassigned-access.
// Пагинация применяется к итоговому объединению.
func (r *PGRepo) ListFor(ctx context.Context, p *domain.Principal, ap domain.AccessPolicy, page domain.Page) ([]domain.FileRecord, error) {
	roles := domain.EffectiveRoles(p)

	visible := sq.Or{
		sq.Eq{"visibility": string(domain.VisibilityPublic)},
	}
	if p != nil {
		visible = append(visible,
			sq.Eq{"owner_id": p.ID},
			sq.Eq{"visibility": string(domain.VisibilityInternal)},
			sq.Expr("EXISTS (SELECT 1 FROM jsonb_array_elements(share) e WHERE e->>'user' = ?)", p.ID.String()),
		)
	}
	visible = append(visible,
		sq.Expr("EXISTS (SELECT 1 FROM jsonb_array_elements(share) e WHERE e->>'role' = ANY(?))", roles),
	)
	if ap.HasUnassignedAccess(p) {
		visible = append(visible, sq.Expr("owner_id IS NULL"))
	}

	sb := r.qb().Select(fileCols).From(r.filesTable()).
		Where(visible).
		OrderBy("created_at DESC", "id DESC")

	if page.Skip > 0 {
		sb = sb.Offset(uint64(page.Skip))
	}
	if page.Top > 0 {
		sb = sb.Limit(uint64(page.Top))
	}

	sqlStr, args, _ := sb.ToSql()
	r.logSQL("ListFor", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("ListFor query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	var res []domain.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			r.logger.Printf("ListFor scan error: %v", err)
			return nil, err
		}
		res = append(res, f)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("ListFor rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("ListFor ok in %s count=%d", time.Since(start), len(res))
	return res, nil
}

// Update заменяет переданные верхнеуровневые поля целиком. Metadata —
// wholesale: owner/visibility/share перезаписываются из переданного
// объекта, deep-merge нет (осознанный контракт, см. domain.FileUpdate).
func (r *PGRepo) Update(ctx context.Context, id domain.FileID, upd domain.FileUpdate) (domain.FileRecord, error) {
	set := map[string]any{
		"updated_at": sq.Expr("now()"),
	}
	if upd.Filename != nil {
		set["filename"] = *upd.Filename
	}
	if upd.Metadata != nil {
		if !upd.Metadata.Visibility.Valid() {
			return domain.FileRecord{}, domain.ErrBadVisibility
		}
		share := upd.Metadata.Share
		if share == nil {
			share = []domain.ShareEntry{}
		}
		shareRaw, err := json.Marshal(share)
		if err != nil {
			return domain.FileRecord{}, err
		}
		set["owner_id"] = upd.Metadata.Owner
		set["visibility"] = string(upd.Metadata.Visibility)
		set["share"] = shareRaw
	}

	q := r.qb().Update(r.filesTable()).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + fileCols)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("Update", sqlStr, args)

	start := time.Now()
	out, err := scanFile(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FileRecord{}, domain.ErrNotFound
		}
		r.logger.Printf("Update scan error after %s: %v", time.Since(start), err)
		return domain.FileRecord{}, err
	}
	r.logger.Printf("Update ok in %s id=%s", time.Since(start), out.ID)
	return out, nil
}

// BulkSetVisibility — best-effort патч после загрузки; вызывающий код
// не обязан падать из-за его ошибки.
func (r *PGRepo) BulkSetVisibility(ctx context.Context, ids []domain.FileID, v domain.Visibility) error {
	if len(ids) == 0 {
		return nil
	}
	if !v.Valid() {
		return domain.ErrBadVisibility
	}

	q := r.qb().Update(r.filesTable()).
		SetMap(map[string]any{
			"visibility": string(v),
			"updated_at": sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": ids})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("BulkSetVisibility", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("BulkSetVisibility exec error after %s: %v", time.Since(start), err)
		return err
	}
	r.logger.Printf("BulkSetVisibility ok in %s rows=%d", time.Since(start), tag.RowsAffected())
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id domain.FileID) error {
	q := r.qb().Delete(r.filesTable()).Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("Delete", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("Delete exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Printf("Delete no rows affected in %s id=%s", time.Since(start), id)
		return domain.ErrNotFound
	}
	r.logger.Printf("Delete ok in %s id=%s", time.Since(start), id)
	return nil
}

var _ domain.FilesRepo = (*PGRepo)(nil)
