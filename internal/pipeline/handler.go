package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Mutation actions published to the event sink.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// EventSink receives a best-effort notification after every successful
// mutation. Implementations must not block the request path on failure.
type EventSink interface {
	Publish(ctx context.Context, resource, action, id string, data any)
}

// Resource declares everything the generic handler needs to serve one
// CRUD-able entity type. Per-resource code is this declaration and nothing
// else.
type Resource struct {
	Name        string
	Collection  string
	BusinessKey string
	Schema      *Schema

	// DefaultSort orders list responses; empty means descending createdAt.
	DefaultSort bson.D

	// MediaFolder is the object-store prefix for this resource's uploads.
	MediaFolder string
	// OwnsMedia: deleting a record (or replacing a media field) also deletes
	// the objects it solely owns. When false, replaced and orphaned media is
	// deliberately retained.
	OwnsMedia bool

	// SearchField gets the ?search= substring predicate.
	SearchField string
	// FilterFields are accepted as equality predicates from the query string.
	FilterFields []string

	// Orderable resources carry a rank field and expose a reorder endpoint.
	Orderable bool
	// AllowBulk lets POST accept an array body inserted as one batch.
	AllowBulk bool
	// PublicCreate skips authentication on create (e.g. contact requests).
	PublicCreate bool

	// ListHook lets a resource append predicates from its own query
	// parameters (e.g. active stories not yet expired).
	ListHook func(c *fiber.Ctx, f *Filter) error
}

// Options bound the handler's media handling.
type Options struct {
	UploadTimeout  time.Duration
	MaxUploadBytes int64
	AllowedTypes   []string
}

func (o Options) withDefaults() Options {
	if o.UploadTimeout == 0 {
		o.UploadTimeout = 30 * time.Second
	}
	if o.MaxUploadBytes == 0 {
		o.MaxUploadBytes = 50 * 1024 * 1024
	}
	if len(o.AllowedTypes) == 0 {
		o.AllowedTypes = []string{
			"image/png", "image/jpeg", "image/jpg", "image/webp",
			"image/gif", "video/mp4", "application/pdf",
		}
	}
	return o
}

// Handler composes validator, uploader, store and envelope into one
// request/response cycle per verb. Each request runs the same linear
// pipeline: parse, validate, upload, persist, envelope. Any stage failing
// short-circuits to the error envelope; nothing is retried.
type Handler struct {
	res    Resource
	store  Store
	up     Uploader
	events EventSink
	log    *zap.SugaredLogger
	opts   Options
}

func NewHandler(res Resource, store Store, up Uploader, events EventSink, log *zap.SugaredLogger, opts Options) *Handler {
	return &Handler{res: res, store: store, up: up, events: events, log: log, opts: opts.withDefaults()}
}

func (h *Handler) Resource() Resource { return h.res }

// Register mounts the verb handlers on a router group. The reorder route is
// registered before the :id routes so it is not captured as an id.
func (h *Handler) Register(r fiber.Router, writeGuard ...fiber.Handler) {
	createGuard := writeGuard
	if h.res.PublicCreate {
		createGuard = nil
	}
	r.Post("/", chain(createGuard, h.Create)...)
	r.Get("/", h.List)
	if h.res.Orderable {
		r.Patch("/reorder", chain(writeGuard, h.Reorder)...)
	}
	r.Get("/:id", h.Get)
	r.Patch("/:id", chain(writeGuard, h.Update)...)
	r.Delete("/:id", chain(writeGuard, h.Delete)...)
}

// chain copies the guard slice so routes never share a backing array.
func chain(guards []fiber.Handler, last fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, last)
}

// Create handles POST. For bulk-enabled resources an array body inserts a
// batch: every element is validated before any insert happens.
func (h *Handler) Create(c *fiber.Ctx) error {
	if h.res.AllowBulk && isJSONArray(c) {
		return h.createBulk(c)
	}

	raw, files, err := h.parseRequest(c)
	if err != nil {
		return h.fail(c, err)
	}
	// a pending file satisfies its media field's create contract; the URL
	// replaces the placeholder after upload
	for _, fp := range files {
		raw[fp.Field] = fp.Filename
	}

	doc, err := h.res.Schema.ValidateCreate(raw)
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.applyUploads(c.UserContext(), doc, files); err != nil {
		return h.fail(c, err)
	}

	created, err := h.store.Create(c.UserContext(), doc)
	if err != nil {
		return h.fail(c, err)
	}
	h.publish(c.UserContext(), ActionCreated, created)
	return Respond(c, fiber.StatusCreated, h.res.Name+" created", created)
}

func (h *Handler) createBulk(c *fiber.Ctx) error {
	var elems []map[string]any
	if err := json.Unmarshal(c.Body(), &elems); err != nil {
		return h.fail(c, newValidationError(FieldError{Field: "body", Message: "invalid JSON array"}))
	}
	if len(elems) == 0 {
		return h.fail(c, newValidationError(FieldError{Field: "body", Message: "array must not be empty"}))
	}

	docs := make([]bson.M, 0, len(elems))
	for _, raw := range elems {
		h.coerce(raw)
		doc, err := h.res.Schema.ValidateCreate(raw)
		if err != nil {
			return h.fail(c, err)
		}
		docs = append(docs, doc)
	}

	created, err := h.store.CreateMany(c.UserContext(), docs)
	if err != nil {
		return h.fail(c, err)
	}
	for _, doc := range created {
		h.publish(c.UserContext(), ActionCreated, doc)
	}
	return Respond(c, fiber.StatusCreated, h.res.Name+" batch created", created)
}

func (h *Handler) List(c *fiber.Ctx) error {
	f := Filter{Eq: bson.M{}, Regex: map[string]string{}}

	for _, name := range h.res.FilterFields {
		v := c.Query(name)
		if v == "" {
			continue
		}
		if field, ok := h.res.Schema.Field(name); ok {
			if cv, err := field.Coerce(v); err == nil {
				f.Eq[name] = cv
				continue
			}
		}
		f.Eq[name] = v
	}
	if h.res.SearchField != "" {
		if s := c.Query("search"); s != "" {
			f.Regex[h.res.SearchField] = s
		}
	}
	if h.res.ListHook != nil {
		if err := h.res.ListHook(c, &f); err != nil {
			return h.fail(c, err)
		}
	}
	f.Limit = int64(c.QueryInt("limit"))
	f.Offset = int64(c.QueryInt("offset"))

	docs, err := h.store.FindMany(c.UserContext(), f)
	if err != nil {
		return h.fail(c, err)
	}
	return Respond(c, fiber.StatusOK, h.res.Name+" list", docs)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	doc, err := h.store.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return Respond(c, fiber.StatusOK, h.res.Name+" found", doc)
}

// Update performs a merge-patch. When a media field is replaced the new file
// is uploaded first and the record patched in a single atomic update; the
// old object is deleted afterwards if this resource owns its media.
func (h *Handler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	raw, files, err := h.parseRequest(c)
	if err != nil {
		return h.fail(c, err)
	}
	for _, fp := range files {
		raw[fp.Field] = fp.Filename
	}

	patch, err := h.res.Schema.ValidateUpdate(raw)
	if err != nil {
		return h.fail(c, err)
	}

	var replacedKeys []string
	overwritten := h.overwrittenMediaFields(patch, files)
	if len(files) > 0 || (h.res.OwnsMedia && len(overwritten) > 0) {
		// fetch first so a missing id fails before any upload side effect
		old, err := h.store.FindByID(c.UserContext(), id)
		if err != nil {
			return h.fail(c, err)
		}
		if err := h.applyUploads(c.UserContext(), patch, files); err != nil {
			return h.fail(c, err)
		}
		if h.res.OwnsMedia {
			for _, fp := range files {
				if key, ok := old[mediaKeyField(fp.Field)].(string); ok && key != "" {
					replacedKeys = append(replacedKeys, key)
				}
			}
			// a direct URL overwrite also releases the stored object and
			// clears the stale key
			for _, name := range overwritten {
				if key, ok := old[mediaKeyField(name)].(string); ok && key != "" {
					replacedKeys = append(replacedKeys, key)
				}
				patch[mediaKeyField(name)] = ""
			}
		}
	}

	updated, err := h.store.UpdateByID(c.UserContext(), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	h.deleteMedia(c.UserContext(), replacedKeys)
	h.publish(c.UserContext(), ActionUpdated, updated)
	return Respond(c, fiber.StatusOK, h.res.Name+" updated", updated)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	doc, err := h.store.DeleteByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if h.res.OwnsMedia {
		var keys []string
		for _, mf := range h.res.Schema.MediaFields() {
			if key, ok := doc[mediaKeyField(mf.Name)].(string); ok && key != "" {
				keys = append(keys, key)
			}
		}
		h.deleteMedia(c.UserContext(), keys)
	}
	h.publish(c.UserContext(), ActionDeleted, doc)
	return Respond(c, fiber.StatusOK, h.res.Name+" deleted", nil)
}

// Reorder assigns ranks from a full permutation of ids.
func (h *Handler) Reorder(c *fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil || len(body.IDs) == 0 {
		return h.fail(c, newValidationError(FieldError{Field: "ids", Message: "a non-empty id list is required"}))
	}
	if err := h.store.Reorder(c.UserContext(), body.IDs); err != nil {
		return h.fail(c, err)
	}
	return Respond(c, fiber.StatusOK, h.res.Name+" reordered", nil)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if StatusOf(err) == fiber.StatusInternalServerError {
		h.log.Errorw("request failed", "resource", h.res.Name, "path", c.Path(), "error", err)
	} else {
		h.log.Debugw("request rejected", "resource", h.res.Name, "path", c.Path(), "error", err)
	}
	return RespondError(c, err)
}

func (h *Handler) publish(ctx context.Context, action string, doc bson.M) {
	if h.events == nil {
		return
	}
	id, _ := doc["_id"].(string)
	h.events.Publish(ctx, h.res.Name, action, id, doc)
}

func (h *Handler) deleteMedia(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := h.up.Delete(ctx, key); err != nil {
			// deletion is idempotent and best-effort; a leak is logged, never
			// a request failure
			h.log.Warnw("media delete failed", "resource", h.res.Name, "key", key, "error", err)
		}
	}
}

// applyUploads pushes every file concurrently, waits for all of them, and
// substitutes URLs into the document. Upload always precedes the persistence
// call so a record never references an object that failed to land, and a
// failed upload means no record is written at all.
func (h *Handler) applyUploads(ctx context.Context, doc bson.M, files []FilePart) error {
	if len(files) == 0 {
		return nil
	}
	results, err := UploadAll(ctx, h.up, h.res.MediaFolder, files, h.opts.UploadTimeout)
	if err != nil {
		return err
	}
	for _, r := range results {
		doc[r.Field] = r.URL
		doc[mediaKeyField(r.Field)] = r.Key
	}
	return nil
}

// parseRequest turns a JSON or multipart body into a raw payload map plus
// file parts, coercing primitive types at this boundary per the schema.
func (h *Handler) parseRequest(c *fiber.Ctx) (map[string]any, []FilePart, error) {
	raw := map[string]any{}
	var files []FilePart

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, newValidationError(FieldError{Field: "body", Message: "invalid multipart form"})
		}
		for name, vals := range form.Value {
			if len(vals) > 0 {
				raw[name] = vals[0]
			}
		}
		for name, headers := range form.File {
			if len(headers) == 0 {
				continue
			}
			field, ok := h.res.Schema.Field(name)
			if !ok || !field.Media {
				return nil, nil, newValidationError(FieldError{Field: name, Message: "unexpected file field"})
			}
			fp, err := h.readFile(name, headers[0])
			if err != nil {
				return nil, nil, err
			}
			files = append(files, fp)
		}
	} else {
		if len(bytes.TrimSpace(c.Body())) == 0 {
			return nil, nil, newValidationError(FieldError{Field: "body", Message: "request body is required"})
		}
		if err := json.Unmarshal(c.Body(), &raw); err != nil {
			return nil, nil, newValidationError(FieldError{Field: "body", Message: "invalid JSON body"})
		}
	}

	h.coerce(raw)
	return raw, files, nil
}

// coerce converts raw values to their declared kinds. Failures leave the
// value untouched so the validator reports the type violation.
func (h *Handler) coerce(raw map[string]any) {
	for name, val := range raw {
		field, ok := h.res.Schema.Field(name)
		if !ok {
			continue
		}
		if cv, err := field.Coerce(val); err == nil {
			raw[name] = cv
		}
	}
}

func (h *Handler) readFile(field string, fh *multipart.FileHeader) (FilePart, error) {
	if fh.Size == 0 || fh.Size > h.opts.MaxUploadBytes {
		return FilePart{}, newValidationError(FieldError{Field: field, Message: "file size not allowed"})
	}
	f, err := fh.Open()
	if err != nil {
		return FilePart{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return FilePart{}, err
	}
	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	if !contains(h.opts.AllowedTypes, ct) {
		return FilePart{}, newValidationError(FieldError{Field: field, Message: "content type not allowed"})
	}
	return FilePart{Field: field, Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

// overwrittenMediaFields returns the media fields a patch rewrites with a
// plain value rather than a file upload.
func (h *Handler) overwrittenMediaFields(patch bson.M, files []FilePart) []string {
	uploaded := map[string]bool{}
	for _, fp := range files {
		uploaded[fp.Field] = true
	}
	var out []string
	for _, mf := range h.res.Schema.MediaFields() {
		if uploaded[mf.Name] {
			continue
		}
		if _, ok := patch[mf.Name]; ok {
			out = append(out, mf.Name)
		}
	}
	return out
}

func mediaKeyField(name string) string { return name + "Key" }

func isJSONArray(c *fiber.Ctx) bool {
	body := bytes.TrimSpace(c.Body())
	return len(body) > 0 && body[0] == '['
}
