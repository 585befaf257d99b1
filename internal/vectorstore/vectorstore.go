// Package vectorstore implements component C4 (VectorStore) over Qdrant's
// gRPC API: collection lifecycle, upserts with retry, filtered similarity
// search, and administrative operations.
package vectorstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"codelore/internal/apperr"
)

// pointIDKey is the payload field every point carries its caller-supplied
// id under. Qdrant point ids must be an unsigned integer or a UUID string;
// chunk ids are MD5 hex digests (with an optional "-N" split ordinal
// suffix), neither of which is guaranteed to be UUID-shaped, so the
// original id travels in the payload and the Qdrant-facing id is a
// deterministic derivation of it.
const pointIDKey = "_point_id"

// Hit is one similarity search result.
type Hit struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Point is one (id, vector, payload) tuple for bulk upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Filter restricts search and delete to points whose payload matches every
// key/value pair exactly (spec §4.4: "all keys must equal their value;
// string equality").
type Filter map[string]string

// Store is the VectorStore implementation bound to a Qdrant collection.
type Store struct {
	client         *qdrant.Client
	collectionName string
	dimension      uint64
}

// Config configures a Store's target collection.
type Config struct {
	Host           string
	Port           int
	APIKey         string
	CollectionName string
	Dimension      int
}

// New connects to Qdrant. It does not create the collection — call Init
// for that.
func New(cfg Config) (*Store, error) {
	qc := &qdrant.Config{Host: cfg.Host, Port: cfg.Port}
	if cfg.APIKey != "" {
		qc.APIKey = cfg.APIKey
	}
	client, err := qdrant.NewClient(qc)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: %w: %v", apperr.ErrVectorStore, err)
	}
	return &Store{client: client, collectionName: cfg.CollectionName, dimension: uint64(cfg.Dimension)}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Init creates the collection with a "content" vector of the configured
// dimension and cosine distance, plus payload indexes on every field
// QueryEngine and JobRegistry filter by. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore: %w: list collections: %v", apperr.ErrVectorStore, err)
	}
	for _, name := range names {
		if name == s.collectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"content": {
				Size:     s.dimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: %w: create collection: %v", apperr.ErrVectorStore, err)
	}

	for _, field := range []string{"repo_name", "file_path", "kind", pointIDKey} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("vectorstore: %w: index field %s: %v", apperr.ErrVectorStore, field, err)
		}
	}
	return nil
}

// Upsert inserts or replaces one point.
func (s *Store) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	return s.UpsertBulk(ctx, []Point{{ID: id, Vector: vector, Payload: payload}})
}

// UpsertBulk inserts or replaces points in one round trip, retrying any
// error the upsert call returns with exponential backoff (500ms initial,
// 10s max interval, 30s in all); errors are not sorted into transient and
// permanent, so a permanent error is also retried until that time runs out.
// Only upserts are retried, not searches.
func (s *Store) UpsertBulk(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	qPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		if uint64(len(p.Vector)) != s.dimension {
			return &apperr.InvalidVector{Got: len(p.Vector), Want: int(s.dimension)}
		}
		payload := cloneWithID(p.Payload, p.ID)
		qPoints[i] = &qdrant.PointStruct{
			Id: qdrant.NewID(toPointUUID(p.ID)),
			Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
				"content": qdrant.NewVector(p.Vector...),
			}),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collectionName,
			Points:         qPoints,
		})
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("vectorstore: %w: upsert: %v", apperr.ErrVectorStore, err)
	}
	return nil
}

// Search returns up to limit points closest to vector, restricted to
// filter's constraints, ordered by descending cosine similarity. Not
// retried.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]Hit, error) {
	if uint64(len(vector)) != s.dimension {
		return nil, &apperr.InvalidVector{Got: len(vector), Want: int(s.dimension)}
	}
	if limit <= 0 {
		return nil, fmt.Errorf("vectorstore: %w: limit must be > 0", apperr.ErrInvalidArgument)
	}

	vectorName := "content"
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Using:          &vectorName,
		Filter:         toQdrantFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: %w: search: %v", apperr.ErrVectorStore, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		payload := payloadToMap(r.Payload)
		id, _ := payload[pointIDKey].(string)
		delete(payload, pointIDKey)
		hits = append(hits, Hit{ID: id, Score: r.Score, Payload: payload})
	}
	return hits, nil
}

// DeleteByFilter removes every point matching filter. Used by
// JobRegistry.delete so re-indexing after a delete never sees stale points.
func (s *Store) DeleteByFilter(ctx context.Context, filter Filter) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: toQdrantFilter(filter),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: %w: delete by filter: %v", apperr.ErrVectorStore, err)
	}
	return nil
}

// ListCollections returns every collection name Qdrant currently holds.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: %w: list collections: %v", apperr.ErrVectorStore, err)
	}
	return names, nil
}

// DeleteCollection drops the store's collection entirely.
func (s *Store) DeleteCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collectionName); err != nil {
		return fmt.Errorf("vectorstore: %w: delete collection: %v", apperr.ErrVectorStore, err)
	}
	return nil
}

func toQdrantFilter(filter Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filter))
	for k, v := range filter {
		must = append(must, qdrant.NewMatch(k, v))
	}
	return &qdrant.Filter{Must: must}
}

func cloneWithID(payload map[string]any, id string) map[string]any {
	m := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		m[k] = v
	}
	m[pointIDKey] = id
	return m
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	m := make(map[string]any, len(payload))
	for k, v := range payload {
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			m[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			m[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			m[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			m[k] = kind.BoolValue
		default:
			m[k] = v.GetStringValue()
		}
	}
	return m
}

// toPointUUID derives a deterministic, UUID-shaped point id from an
// arbitrary caller id. Qdrant only accepts unsigned integers or UUID
// strings as point ids; chunk ids are MD5 hex digests, possibly with a
// "-N" split suffix, which don't fit that shape directly. The original id
// is preserved verbatim in the payload (pointIDKey) so it round-trips
// through search results regardless of this derivation.
func toPointUUID(id string) string {
	sum := md5.Sum([]byte(id))
	hexStr := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", hexStr[0:8], hexStr[8:12], hexStr[12:16], hexStr[16:20], hexStr[20:32])
}
