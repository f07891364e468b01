package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/files-manager/internal/domain"
)

// ---- фейки хранилища и репозитория ----

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[domain.FileID][]byte
	fail  bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[domain.FileID][]byte)}
}

func (s *fakeStorage) Put(_ context.Context, r io.Reader, _ string) (domain.BlobPutResult, error) {
	if s.fail {
		return domain.BlobPutResult{}, errors.New("storage down")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.BlobPutResult{}, err
	}
	id := uuid.New()
	s.mu.Lock()
	s.blobs[id] = data
	s.mu.Unlock()
	sum := sha256.Sum256(data)
	return domain.BlobPutResult{ID: id, Size: int64(len(data)), SHA256: sum[:]}, nil
}

func (s *fakeStorage) Get(_ context.Context, id domain.FileID) (io.ReadCloser, int64, string, error) {
	s.mu.Lock()
	data, ok := s.blobs[id]
	s.mu.Unlock()
	if !ok {
		return nil, 0, "", errors.New("no such blob")
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), "", nil
}

func (s *fakeStorage) Delete(_ context.Context, id domain.FileID) error {
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
	return nil
}

func (s *fakeStorage) Ping(context.Context) error { return nil }

type fakeRepo struct {
	mu       sync.Mutex
	recs     map[domain.FileID]domain.FileRecord
	failBulk bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{recs: make(map[domain.FileID]domain.FileRecord)}
}

func (r *fakeRepo) Close()                     {}
func (r *fakeRepo) Ping(context.Context) error { return nil }

func (r *fakeRepo) Create(_ context.Context, rec domain.FileRecord) (domain.FileRecord, error) {
	if !rec.Metadata.Visibility.Valid() {
		return domain.FileRecord{}, domain.ErrBadVisibility
	}
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	r.mu.Lock()
	r.recs[rec.ID] = rec
	r.mu.Unlock()
	return rec, nil
}

func (r *fakeRepo) ByID(_ context.Context, id domain.FileID) (domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return domain.FileRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (r *fakeRepo) ByIDs(_ context.Context, ids []domain.FileID) ([]domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FileRecord
	for _, id := range ids {
		if rec, ok := r.recs[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListFor(_ context.Context, _ *domain.Principal, _ domain.AccessPolicy, _ domain.Page) ([]domain.FileRecord, error) {
	return nil, nil
}

func (r *fakeRepo) Update(_ context.Context, id domain.FileID, upd domain.FileUpdate) (domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return domain.FileRecord{}, domain.ErrNotFound
	}
	if upd.Filename != nil {
		rec.Filename = *upd.Filename
	}
	if upd.Metadata != nil {
		if !upd.Metadata.Visibility.Valid() {
			return domain.FileRecord{}, domain.ErrBadVisibility
		}
		rec.Metadata = *upd.Metadata
	}
	r.recs[id] = rec
	return rec, nil
}

func (r *fakeRepo) BulkSetVisibility(_ context.Context, ids []domain.FileID, v domain.Visibility) error {
	if r.failBulk {
		return errors.New("bulk failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if rec, ok := r.recs[id]; ok {
			rec.Metadata.Visibility = v
			r.recs[id] = rec
		}
	}
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id domain.FileID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.recs, id)
	return nil
}

// ---- хелперы ----

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	[]byte{0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}...)

func pngBase64() string {
	return base64.StdEncoding.EncodeToString(pngBytes)
}

func newPipeline(st *fakeStorage, repo *fakeRepo) *Pipeline {
	return &Pipeline{
		Log:               log.New(io.Discard, "", 0),
		Storage:           st,
		Files:             repo,
		Accept:            []string{"image/*", "application/pdf"},
		DefaultVisibility: domain.VisibilityPrivate,
	}
}

// ---- тесты ----

func TestRunBase64Batch(t *testing.T) {
	st := newFakeStorage()
	repo := newFakeRepo()
	p := newPipeline(st, repo)

	me := domain.Principal{ID: uuid.New()}
	res := p.Run(context.Background(),
		[]string{pngBase64(), "not-base64-at-all-garbage"},
		nil, "internal", &me)

	require.Len(t, res.Items, 2)

	// успех идёт первым, с полной записью
	require.NotNil(t, res.Items[0].Record)
	rec := res.Items[0].Record
	assert.Equal(t, "image/png", rec.ContentType)
	assert.Equal(t, int64(len(pngBytes)), rec.Length)
	require.NotNil(t, rec.Metadata.Owner)
	assert.Equal(t, me.ID, *rec.Metadata.Owner)
	assert.Equal(t, domain.VisibilityInternal, rec.Metadata.Visibility)

	// мусор — мягкая ошибка, не исключение
	assert.Nil(t, res.Items[1].Record)
	assert.Equal(t, domain.MsgFileWithNoExt, res.Items[1].Err)

	assert.True(t, res.VisibilityPatched)
}

func TestRunRoundTrip(t *testing.T) {
	st := newFakeStorage()
	repo := newFakeRepo()
	p := newPipeline(st, repo)

	res := p.Run(context.Background(), []string{pngBase64()}, nil, "public", nil)
	require.Len(t, res.Items, 1)
	require.NotNil(t, res.Items[0].Record)

	rc, size, _, err := st.Get(context.Background(), res.Items[0].Record.ID)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
	assert.Equal(t, int64(len(pngBytes)), size)
}

func TestRunMimeNotAccepted(t *testing.T) {
	st := newFakeStorage()
	repo := newFakeRepo()
	p := newPipeline(st, repo)
	p.Accept = []string{"application/pdf"}

	res := p.Run(context.Background(), []string{pngBase64()}, nil, "private", nil)
	require.Len(t, res.Items, 1)
	assert.Nil(t, res.Items[0].Record)
	assert.Equal(t, domain.MsgMimeNotAccepted+": image/png", res.Items[0].Err)
	// ничего не должно было записаться
	assert.Empty(t, st.blobs)
}

func TestRunInvalidVisibilityFallsBackToPrivate(t *testing.T) {
	st := newFakeStorage()
	repo := newFakeRepo()
	p := newPipeline(st, repo)

	// на пути загрузки "blah" — не ошибка, а откат к private
	res := p.Run(context.Background(), []string{pngBase64()}, nil, "blah", nil)
	require.Len(t, res.Items, 1)
	require.NotNil(t, res.Items[0].Record)
	assert.Equal(t, domain.VisibilityPrivate, res.Items[0].Record.Metadata.Visibility)
}

func TestRunStorageFailureIsPerItem(t *testing.T) {
	st := newFakeStorage()
	st.fail = true
	repo := newFakeRepo()
	p := newPipeline(st, repo)

	res := p.Run(context.Background(), []string{pngBase64(), pngBase64()}, nil, "private", nil)
	require.Len(t, res.Items, 2)
	for _, it := range res.Items {
		assert.Nil(t, it.Record)
		assert.NotEmpty(t, it.Err)
	}
}

func TestRunBulkPatchFailureIsSwallowed(t *testing.T) {
	st := newFakeStorage()
	repo := newFakeRepo()
	repo.failBulk = true
	p := newPipeline(st, repo)

	res := p.Run(context.Background(), []string{pngBase64()}, nil, "public", nil)
	require.Len(t, res.Items, 1)
	// запись создана, ответ успешный, но патч не прошёл — это видно по флагу
	require.NotNil(t, res.Items[0].Record)
	assert.False(t, res.VisibilityPatched)
}

func TestRunOrderIsDeterministic(t *testing.T) {
	st := newFakeStorage()
	repo := newFakeRepo()
	p := newPipeline(st, repo)

	mp := domain.FileRecord{ID: uuid.New(), Filename: "form.png"}
	res := p.Run(context.Background(),
		[]string{"garbage-1", pngBase64(), "garbage-2"},
		[]domain.FileRecord{mp}, "private", nil)

	// успехи base64, затем ошибки base64, затем multipart
	require.Len(t, res.Items, 4)
	assert.NotNil(t, res.Items[0].Record)
	assert.Equal(t, domain.MsgFileWithNoExt, res.Items[1].Err)
	assert.Equal(t, domain.MsgFileWithNoExt, res.Items[2].Err)
	require.NotNil(t, res.Items[3].Record)
	assert.Equal(t, mp.ID, res.Items[3].Record.ID)
}

func TestIngestMultipart(t *testing.T) {
	st := newFakeStorage()
	repo := newFakeRepo()
	p := newPipeline(st, repo)

	me := domain.Principal{ID: uuid.New()}

	rec, ok, err := p.IngestMultipart(context.Background(), bytes.NewReader(pngBytes), "logo.png", &me)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "logo.png", rec.Filename)
	assert.Equal(t, "image/png", rec.ContentType)
	assert.Equal(t, domain.VisibilityPrivate, rec.Metadata.Visibility)

	// файл, не прошедший фильтр, выбрасывается без записи и без ошибки
	_, ok, err = p.IngestMultipart(context.Background(), bytes.NewReader([]byte("%PDF-1.4 ...")), "doc.pdf", &me)
	require.NoError(t, err)
	assert.True(t, ok) // pdf в списке допуска

	p.Accept = []string{"image/*"}
	_, ok, err = p.IngestMultipart(context.Background(), bytes.NewReader([]byte("%PDF-1.4 ...")), "doc.pdf", &me)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcceptsMime(t *testing.T) {
	p := &Pipeline{Accept: []string{"image/*", "application/pdf"}}
	assert.True(t, p.AcceptsMime("image/png"))
	assert.True(t, p.AcceptsMime("image/jpeg"))
	assert.True(t, p.AcceptsMime("application/pdf"))
	assert.False(t, p.AcceptsMime("application/zip"))
	assert.False(t, p.AcceptsMime("video/mp4"))
}
