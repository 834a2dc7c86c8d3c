package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/cache"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"
	apperrors "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/errors"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, biz.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) List(_ context.Context, prefix string) ([]biz.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []biz.BlobInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, biz.BlobInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

type recordingEnqueuer struct {
	mu  sync.Mutex
	ids []string
}

func (e *recordingEnqueuer) EnqueueArtifact(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, id)
	return nil
}

type env struct {
	router    *gin.Engine
	blobs     *memBlobs
	templates *data.TemplateRepo
	guidance  *data.GuidanceRepo
	tplUC     *biz.TemplateUseCase
	tplSvc    *TemplateService
	enqueuer  *recordingEnqueuer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(database.SQLiteMemoryConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, data.AutoMigrate(db))

	blobs := &memBlobs{objects: make(map[string][]byte)}
	artifactRepo := data.NewArtifactRepo(db)
	templateRepo := data.NewTemplateRepo(db)
	guidanceRepo := data.NewGuidanceRepo(db)

	opts := biz.DefaultSyncOptions()
	artifacts := biz.NewArtifactUseCase(artifactRepo, blobs, nil, nil, opts, nil)
	templates := biz.NewTemplateUseCase(templateRepo, blobs, nil, opts, nil)
	query := biz.NewQueryUseCase(artifactRepo, templateRepo, guidanceRepo, nil, 0, nil)

	sessions, err := cache.NewRegistry(8, query, 50)
	require.NoError(t, err)
	enq := &recordingEnqueuer{}

	r := gin.New()
	r.Use(logger.GinLogger(logger.NewNop(), logger.MiddlewareOptions{}))
	api := r.Group("/api/v1")
	NewArtifactService(artifacts, query, sessions, enq, nil).RegisterRoutes(api)
	tplSvc := NewTemplateService(templates, query, nil)
	tplSvc.RegisterRoutes(api)
	NewGuidanceService(query, nil).RegisterRoutes(api)

	return &env{
		router:    r,
		blobs:     blobs,
		templates: templateRepo,
		guidance:  guidanceRepo,
		tplUC:     templates,
		tplSvc:    tplSvc,
		enqueuer:  enq,
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *env) do(t *testing.T, req *http.Request, session string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if session != "" {
		req.Header.Set(logger.HeaderSessionID, session)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var body envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (e *env) upload(t *testing.T, name string, content []byte, session string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artifacts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, req, session)
}

func TestArtifactUploadDownloadRoundTrip(t *testing.T) {
	e := newEnv(t)
	content := bytes.Repeat([]byte("r"), 2048)

	w, body := e.upload(t, "résumé.pdf", content, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var a types.Artifact
	require.NoError(t, json.Unmarshal(body.Data, &a))
	assert.Equal(t, "résumé.pdf", a.DisplayName)
	assert.EqualValues(t, 2048, a.ByteSize)
	assert.Equal(t, []string{a.ID}, e.enqueuer.ids)

	w, _ = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+a.ID+"/download", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "2048", w.Header().Get("Content-Length"))

	_, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "résumé.pdf", params["filename"])
}

func TestArtifactUploadValidation(t *testing.T) {
	e := newEnv(t)

	w, body := e.upload(t, "payload.exe", []byte("MZ"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrArtifactFileType, body.Code)

	w, body = e.upload(t, "empty.pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrArtifactInvalid, body.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artifacts", strings.NewReader("no form"))
	w, body = e.do(t, req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrInvalidParams, body.Code)

	assert.Empty(t, e.blobs.objects)
	assert.Empty(t, e.enqueuer.ids)
}

func TestArtifactDeleteIsIdempotent(t *testing.T) {
	e := newEnv(t)
	_, body := e.upload(t, "recall.txt", []byte("recall"), "")
	var a types.Artifact
	require.NoError(t, json.Unmarshal(body.Data, &a))

	for i, want := range []bool{true, false} {
		w, body := e.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/artifacts/"+a.ID, nil), "")
		require.Equal(t, http.StatusOK, w.Code, "call %d", i)
		var resp DeleteResponse
		require.NoError(t, json.Unmarshal(body.Data, &resp))
		assert.Equal(t, want, resp.Deleted)
		assert.Empty(t, resp.Warning)
	}
	assert.Empty(t, e.blobs.objects)

	w, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+a.ID+"/download", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrArtifactNotFound, body.Code)
}

func TestArtifactSessionCache(t *testing.T) {
	e := newEnv(t)

	w, _ := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/session", nil), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	session := func(refresh bool) SessionResponse {
		url := "/api/v1/artifacts/session"
		if refresh {
			url += "?refresh=true"
		}
		w, body := e.do(t, httptest.NewRequest(http.MethodGet, url, nil), "s1")
		require.Equal(t, http.StatusOK, w.Code)
		var resp SessionResponse
		require.NoError(t, json.Unmarshal(body.Data, &resp))
		return resp
	}

	assert.Zero(t, session(false).Total)

	_, body := e.upload(t, "mine.pdf", []byte("%PDF-1.4"), "s1")
	var mine types.Artifact
	require.NoError(t, json.Unmarshal(body.Data, &mine))
	e.upload(t, "other.pdf", []byte("%PDF-1.4"), "s2")

	got := session(false)
	require.Equal(t, 1, got.Total, "only the caller's session is patched")
	assert.Equal(t, mine.ID, got.Items[0].ID)
	assert.Equal(t, 2, session(true).Total)

	e.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/artifacts/"+mine.ID, nil), "s1")
	assert.Equal(t, 1, session(false).Total)
}

func TestArtifactListQueryErrors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"bad date", "/api/v1/artifacts?from=yesterday", apperrors.ErrInvalidParams},
		{"inverted range", "/api/v1/artifacts?from=2024-05-01&to=2024-04-01", apperrors.ErrInvalidParams},
		{"page size too large", "/api/v1/artifacts?page_size=1000", apperrors.ErrInvalidParams},
		{"page zero", "/api/v1/artifacts?page=0&page_size=-1", apperrors.ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := e.do(t, httptest.NewRequest(http.MethodGet, tt.url, nil), "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, body.Code)
		})
	}

	w, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/artifacts?to=2024-04-01", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	var page types.Page[*types.Artifact]
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.NotNil(t, page.Items)
	assert.Zero(t, page.TotalCount)
}

func TestTemplateDownload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	external := &types.Template{ID: "t-ext", Title: "CE Technical File", DownloadURL: types.ExternalTarget("https://example.eu/tf.docx")}
	_, err := e.tplUC.Import(ctx, &biz.TemplateImport{Template: external})
	require.NoError(t, err)

	w, _ := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/templates/t-ext/download", nil), "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.eu/tf.docx", w.Header().Get("Location"))

	internal := &types.Template{ID: "t-int", Title: "510(k) Cover Letter", FileFormat: "TXT"}
	content := []byte("Dear reviewer")
	_, err = e.tplUC.Import(ctx, &biz.TemplateImport{Template: internal, Content: bytes.NewReader(content), Size: int64(len(content))})
	require.NoError(t, err)

	w, _ = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/templates/t-int/download", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	_, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "510(k) Cover Letter.txt", params["filename"])

	assert.Eventually(t, func() bool {
		ext, err1 := e.templates.GetByID(ctx, "t-ext")
		in, err2 := e.templates.GetByID(ctx, "t-int")
		return err1 == nil && err2 == nil && ext.DownloadCount == 1 && in.DownloadCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	w, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/templates/missing/download", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrTemplateNotFound, body.Code)
}

func TestTemplateDownloadCountsFlushedOnWait(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tpl := &types.Template{ID: "t-ext", Title: "CE Technical File", DownloadURL: types.ExternalTarget("https://example.eu/tf.docx")}
	_, err := e.tplUC.Import(ctx, &biz.TemplateImport{Template: tpl})
	require.NoError(t, err)

	const downloads = 5
	for i := 0; i < downloads; i++ {
		w, _ := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/templates/t-ext/download", nil), "")
		require.Equal(t, http.StatusFound, w.Code)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, e.tplSvc.Wait(waitCtx))

	got, err := e.templates.GetByID(ctx, "t-ext")
	require.NoError(t, err)
	assert.Equal(t, int64(downloads), got.DownloadCount)
}

func TestTemplateServiceWaitIdle(t *testing.T) {
	svc := NewTemplateService(nil, nil, nil)
	assert.NoError(t, svc.Wait(context.Background()))
}

func TestGuidanceEndpoints(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.guidance.Upsert(context.Background(), []*types.Guidance{
		{ID: "g1", Title: "Cybersecurity", Organization: "CDRH", Status: types.GuidanceStatusFinal,
			Topics: []string{"Software"}, IssueDate: time.Date(2023, 9, 27, 0, 0, 0, 0, time.UTC)},
		{ID: "g2", Title: "AI Functions", Organization: "CDRH", Status: types.GuidanceStatusDraft,
			Topics: []string{"AI/ML", "Software"}, IssueDate: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)},
	}))

	w, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/guidance?status=Draft&topic=Software", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	var page types.Page[*types.Guidance]
	require.NoError(t, json.Unmarshal(body.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "g2", page.Items[0].ID)

	w, body = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/guidance?to=2023-09-27", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(body.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "g1", page.Items[0].ID)

	w, body = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/guidance/options", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	var opts types.FilterOptions
	require.NoError(t, json.Unmarshal(body.Data, &opts))
	assert.Equal(t, []string{"AI/ML", "Software"}, opts.Topics)

	w, body = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/guidance/stats", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats types.GuidanceStats
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, types.GuidanceStats{Total: 2, Final: 1, Draft: 1}, stats)
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"ascii", "report.pdf"},
		{"spaces", "Cover Letter.docx"},
		{"latin", "résumé.pdf"},
		{"cjk", "医疗器械注册.docx"},
		{"quotes", `say "hi";.txt`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disp, params, err := mime.ParseMediaType(contentDisposition(tt.in))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disp)
			assert.Equal(t, tt.in, params["filename"])
		})
	}
}
