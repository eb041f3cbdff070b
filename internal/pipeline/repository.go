package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Filter is a conjunction of optional predicates applied to a list query.
type Filter struct {
	Eq     bson.M
	Regex  map[string]string // field -> case-insensitive substring
	Extra  []bson.M          // raw predicates appended by list hooks
	Sort   bson.D
	Limit  int64
	Offset int64
}

// Store is the persistence contract the resource handler composes. Mongo
// implements it; tests substitute fakes.
type Store interface {
	Create(ctx context.Context, doc bson.M) (bson.M, error)
	CreateMany(ctx context.Context, docs []bson.M) ([]bson.M, error)
	FindMany(ctx context.Context, f Filter) ([]bson.M, error)
	FindByID(ctx context.Context, id string) (bson.M, error)
	UpdateByID(ctx context.Context, id string, patch bson.M) (bson.M, error)
	DeleteByID(ctx context.Context, id string) (bson.M, error)
	Reorder(ctx context.Context, ids []string) error
}

// Mongo is the per-resource data-access object over one collection.
type Mongo struct {
	col         *mongo.Collection
	resource    string
	businessKey string
	defaultSort bson.D
}

func NewMongo(col *mongo.Collection, resource, businessKey string, defaultSort bson.D) *Mongo {
	if len(defaultSort) == 0 {
		defaultSort = bson.D{{Key: "createdAt", Value: -1}}
	}
	return &Mongo{col: col, resource: resource, businessKey: businessKey, defaultSort: defaultSort}
}

func (m *Mongo) stamp(doc bson.M, now time.Time) bson.M {
	doc["_id"] = uuid.NewString()
	doc["createdAt"] = now
	doc["updatedAt"] = now
	return doc
}

func (m *Mongo) Create(ctx context.Context, doc bson.M) (bson.M, error) {
	doc = m.stamp(doc, time.Now().UTC())
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &DuplicateKeyError{Resource: m.resource, Key: m.businessKey}
		}
		return nil, err
	}
	return doc, nil
}

// CreateMany inserts a batch in one ordered call. Atomicity is whatever the
// store's batch insert guarantees; a partial failure is reported as a single
// error.
func (m *Mongo) CreateMany(ctx context.Context, docs []bson.M) ([]bson.M, error) {
	now := time.Now().UTC()
	payload := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		payload = append(payload, m.stamp(d, now))
	}
	if _, err := m.col.InsertMany(ctx, payload); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &DuplicateKeyError{Resource: m.resource, Key: m.businessKey}
		}
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) FindMany(ctx context.Context, f Filter) ([]bson.M, error) {
	query := bson.M{}
	for k, v := range f.Eq {
		query[k] = v
	}
	for k, v := range f.Regex {
		query[k] = bson.M{"$regex": v, "$options": "i"}
	}
	if len(f.Extra) > 0 {
		and := make([]bson.M, 0, len(f.Extra)+1)
		if len(query) > 0 {
			and = append(and, query)
		}
		and = append(and, f.Extra...)
		query = bson.M{"$and": and}
	}

	sort := f.Sort
	if len(sort) == 0 {
		sort = m.defaultSort
	}
	opts := options.Find().SetSort(sort)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}

	cur, err := m.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) FindByID(ctx context.Context, id string) (bson.M, error) {
	var doc bson.M
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: m.resource, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateByID performs a merge-patch: only the provided fields change.
func (m *Mongo) UpdateByID(ctx context.Context, id string, patch bson.M) (bson.M, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range patch {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: m.resource, ID: id}
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &DuplicateKeyError{Resource: m.resource, Key: m.businessKey}
		}
		return nil, err
	}
	return doc, nil
}

func (m *Mongo) DeleteByID(ctx context.Context, id string) (bson.M, error) {
	var doc bson.M
	err := m.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: m.resource, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Reorder assigns each id a zero-based rank matching its position in the
// list. Per-id updates run concurrently; the batch as a whole is not atomic,
// so a mid-batch failure can leave a partially applied ordering.
func (m *Mongo) Reorder(ctx context.Context, ids []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		rank, id := i, id
		g.Go(func() error {
			res, err := m.col.UpdateOne(gctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"rank": rank}})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return &NotFoundError{Resource: m.resource, ID: id}
			}
			return nil
		})
	}
	return g.Wait()
}
