package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// fakeStore keeps documents in memory and records every call so tests can
// assert that failed stages never reach persistence.
type fakeStore struct {
	mu         sync.Mutex
	seq        int
	docs       map[string]bson.M
	createErr  error
	lastFilter Filter
	lastPatch  bson.M
	ranks      map[string]int
	manyCalled bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]bson.M{}, ranks: map[string]int{}}
}

func (s *fakeStore) Create(_ context.Context, doc bson.M) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.seq++
	id := fmt.Sprintf("id-%d", s.seq)
	doc["_id"] = id
	s.docs[id] = doc
	return doc, nil
}

func (s *fakeStore) CreateMany(ctx context.Context, docs []bson.M) ([]bson.M, error) {
	s.mu.Lock()
	s.manyCalled = true
	s.mu.Unlock()
	for _, d := range docs {
		if _, err := s.Create(ctx, d); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (s *fakeStore) FindMany(_ context.Context, f Filter) ([]bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	out := []bson.M{}
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "test", ID: id}
	}
	return d, nil
}

func (s *fakeStore) UpdateByID(_ context.Context, id string, patch bson.M) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "test", ID: id}
	}
	s.lastPatch = patch
	for k, v := range patch {
		d[k] = v
	}
	return d, nil
}

func (s *fakeStore) DeleteByID(_ context.Context, id string) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "test", ID: id}
	}
	delete(s.docs, id)
	return d, nil
}

func (s *fakeStore) Reorder(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		if _, ok := s.docs[id]; !ok {
			return &NotFoundError{Resource: "test", ID: id}
		}
		s.ranks[id] = i
	}
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	err      error
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, _ []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.uploaded = append(u.uploaded, key)
	return "https://cdn.test/" + key, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, key)
	return nil
}

type envelopeBody struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     []FieldError    `json:"errors"`
}

func testResource() Resource {
	return Resource{
		Name:         "widgets",
		Collection:   "widgets",
		BusinessKey:  "slug",
		MediaFolder:  "widgets",
		OwnsMedia:    true,
		SearchField:  "name",
		FilterFields: []string{"status"},
		Orderable:    true,
		AllowBulk:    true,
		Schema: NewSchema(
			Field{Name: "name", Kind: KindString, Required: true, MaxLen: 255},
			Field{Name: "slug", Kind: KindString, Required: true, MaxLen: 255},
			Field{Name: "price", Kind: KindFloat, Min: 0.01},
			Field{Name: "rank", Kind: KindInt},
			Field{Name: "image", Kind: KindString, Media: true},
			Field{Name: "status", Kind: KindString, Enum: []string{"active", "inactive"}, Default: "active"},
		),
	}
}

func newTestApp(res Resource, store Store, up Uploader) *fiber.App {
	app := fiber.New()
	h := NewHandler(res, store, up, nil, zap.NewNop().Sugar(), Options{})
	h.Register(app.Group("/" + res.Name))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, envelopeBody) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var env envelopeBody
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp, env
}

func doMultipart(t *testing.T, app *fiber.App, method, path string, fields map[string]string, files map[string]string) (*http.Response, envelopeBody) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, filename := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		hdr.Set("Content-Type", "image/png")
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	var env envelopeBody
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp, env
}

func TestCreateReturnsRecordWithID(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doJSON(t, app, fiber.MethodPost, "/widgets/", `{"name":"Widget","slug":"widget","price":9.5}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, fiber.StatusCreated, env.StatusCode)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data["_id"])
	assert.Equal(t, "Widget", data["name"])
	assert.Equal(t, "active", data["status"], "status defaults on create")
}

func TestCreateValidationFailurePersistsNothing(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doJSON(t, app, fiber.MethodPost, "/widgets/", `{"name":"Widget"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "slug", env.Errors[0].Field)
	assert.Equal(t, 0, store.count(), "no record may exist after a validation failure")
}

func TestCreateRejectsUnknownField(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doJSON(t, app, fiber.MethodPost, "/widgets/", `{"name":"W","slug":"w","hacker":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "hacker", env.Errors[0].Field)
}

func TestCreateWithFileUploadsBeforePersist(t *testing.T) {
	store := newFakeStore()
	up := &fakeUploader{}
	app := newTestApp(testResource(), store, up)

	resp, env := doMultipart(t, app, fiber.MethodPost, "/widgets/",
		map[string]string{"name": "Widget", "slug": "widget", "price": "9.5"},
		map[string]string{"image": "pic.png"})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	url, _ := data["image"].(string)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/widgets/"), "image field replaced with uploaded URL, got %q", url)
	assert.NotEmpty(t, data["imageKey"])
	assert.Equal(t, 9.5, data["price"], "form values coerce at the handler boundary")
	require.Len(t, up.uploaded, 1)
}

func TestCreateUploadFailureIsAtomic(t *testing.T) {
	store := newFakeStore()
	up := &fakeUploader{err: fmt.Errorf("object store down")}
	app := newTestApp(testResource(), store, up)

	resp, env := doMultipart(t, app, fiber.MethodPost, "/widgets/",
		map[string]string{"name": "Widget", "slug": "widget"},
		map[string]string{"image": "pic.png"})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, 0, store.count(), "no record may exist after an upload failure")
}

func TestCreateUnexpectedFileField(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doMultipart(t, app, fiber.MethodPost, "/widgets/",
		map[string]string{"name": "Widget", "slug": "widget"},
		map[string]string{"payload": "x.png"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "payload", env.Errors[0].Field)
}

func TestCreateDuplicateKey(t *testing.T) {
	store := newFakeStore()
	store.createErr = &DuplicateKeyError{Resource: "widgets", Key: "slug"}
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doJSON(t, app, fiber.MethodPost, "/widgets/", `{"name":"W","slug":"w"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "slug")
}

func TestUpdateIsMergePatch(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	_, env := doJSON(t, app, fiber.MethodPost, "/widgets/", `{"name":"Widget","slug":"widget"}`)
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created["_id"].(string)

	resp, env := doJSON(t, app, fiber.MethodPatch, "/widgets/"+id, `{"status":"inactive"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, bson.M{"status": "inactive"}, store.lastPatch, "only provided fields reach the store")
	var updated map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Widget", updated["name"], "omitted fields remain unchanged")
	assert.Equal(t, "inactive", updated["status"])
}

func TestUpdateMediaReplaceDeletesOldObject(t *testing.T) {
	store := newFakeStore()
	up := &fakeUploader{}
	app := newTestApp(testResource(), store, up)

	_, env := doMultipart(t, app, fiber.MethodPost, "/widgets/",
		map[string]string{"name": "Widget", "slug": "widget"},
		map[string]string{"image": "old.png"})
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created["_id"].(string)
	oldKey := created["imageKey"].(string)

	resp, _ := doMultipart(t, app, fiber.MethodPatch, "/widgets/"+id,
		nil, map[string]string{"image": "new.png"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, up.deleted, oldKey, "replaced media of an owning resource is deleted")
}

func TestUpdateMediaOverwriteByURLReleasesOldObject(t *testing.T) {
	store := newFakeStore()
	up := &fakeUploader{}
	app := newTestApp(testResource(), store, up)

	_, env := doMultipart(t, app, fiber.MethodPost, "/widgets/",
		map[string]string{"name": "Widget", "slug": "widget"},
		map[string]string{"image": "old.png"})
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created["_id"].(string)
	oldKey := created["imageKey"].(string)

	resp, _ := doJSON(t, app, fiber.MethodPatch, "/widgets/"+id,
		`{"image":"https://elsewhere.test/pic.png"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, up.deleted, oldKey, "overwriting an owned media field by URL deletes the stored object")
	assert.Equal(t, "", store.lastPatch["imageKey"], "stale key cleared in the same patch")
	assert.Equal(t, "https://elsewhere.test/pic.png", store.lastPatch["image"])
}

func TestUpdateMissingIDBeforeUpload(t *testing.T) {
	store := newFakeStore()
	up := &fakeUploader{}
	app := newTestApp(testResource(), store, up)

	resp, _ := doMultipart(t, app, fiber.MethodPatch, "/widgets/nope",
		nil, map[string]string{"image": "new.png"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Empty(t, up.uploaded, "no upload side effect for a missing id")
}

func TestDeleteTwiceYieldsNotFound(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	_, env := doJSON(t, app, fiber.MethodPost, "/widgets/", `{"name":"W","slug":"w"}`)
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created["_id"].(string)

	resp, _ := doJSON(t, app, fiber.MethodDelete, "/widgets/"+id, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, fiber.MethodDelete, "/widgets/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestDeleteRemovesOwnedMedia(t *testing.T) {
	store := newFakeStore()
	up := &fakeUploader{}
	app := newTestApp(testResource(), store, up)

	_, env := doMultipart(t, app, fiber.MethodPost, "/widgets/",
		map[string]string{"name": "W", "slug": "w"},
		map[string]string{"image": "pic.png"})
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, _ := doJSON(t, app, fiber.MethodDelete, "/widgets/"+created["_id"].(string), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, up.deleted, created["imageKey"].(string))
}

func TestGetMissingIs404(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doJSON(t, app, fiber.MethodGet, "/widgets/nope", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success, "missing ids surface as a failure envelope, never success-with-null")
}

func TestListFilters(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, _ := doJSON(t, app, fiber.MethodGet, "/widgets/?status=active&search=wid", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", store.lastFilter.Eq["status"])
	assert.Equal(t, "wid", store.lastFilter.Regex["name"])
}

func TestReorderAssignsRanksByPosition(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	var ids []string
	for _, slug := range []string{"a", "b", "c"} {
		_, env := doJSON(t, app, fiber.MethodPost, "/widgets/",
			fmt.Sprintf(`{"name":"W","slug":%q}`, slug))
		var created map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &created))
		ids = append(ids, created["_id"].(string))
	}

	// [A,B,C] -> [C,A,B]
	perm := []string{ids[2], ids[0], ids[1]}
	body, _ := json.Marshal(map[string]any{"ids": perm})
	resp, _ := doJSON(t, app, fiber.MethodPatch, "/widgets/reorder", string(body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 0, store.ranks[ids[2]])
	assert.Equal(t, 1, store.ranks[ids[0]])
	assert.Equal(t, 2, store.ranks[ids[1]])
}

func TestBulkCreateValidatesEveryElementFirst(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doJSON(t, app, fiber.MethodPost, "/widgets/",
		`[{"name":"A","slug":"a"},{"name":"B"}]`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, env.Errors)
	assert.False(t, store.manyCalled, "no insert before every element validates")
	assert.Equal(t, 0, store.count())
}

func TestBulkCreateInsertsBatch(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testResource(), store, &fakeUploader{})

	resp, env := doJSON(t, app, fiber.MethodPost, "/widgets/",
		`[{"name":"A","slug":"a"},{"name":"B","slug":"b"}]`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var data []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data, 2)
	assert.Equal(t, 2, store.count())
}
