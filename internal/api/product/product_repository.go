package product

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mlopezr/catalog-api/app/observability/metrics"
	"github.com/mlopezr/catalog-api/internal/api"
)

var _ ProductRepository = (*FirestoreProductRepository)(nil)

// ProductRepository is the catalog store adapter. Absent documents map to
// api.ErrNotFound; every other store failure propagates wrapped.
type ProductRepository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int64, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	DeleteImage(ctx context.Context, imageURL string) error
}

type FirestoreProductRepository struct {
	logger     *slog.Logger
	client     *firestore.Client
	bucket     *storage.BucketHandle
	bucketName string
	collection string
	metrics    *metrics.AppMetrics
}

func NewFirestoreProductRepository(client *firestore.Client, bucket *storage.BucketHandle, bucketName, collection string, m *metrics.AppMetrics, logger *slog.Logger) *FirestoreProductRepository {
	return &FirestoreProductRepository{
		logger:     logger,
		client:     client,
		bucket:     bucket,
		bucketName: bucketName,
		collection: collection,
		metrics:    m,
	}
}

// applyPlan translates a planner plan into a Firestore query. The plan
// already honors the store's constraints (single range field, first sort
// key aligned with it), so application is mechanical.
func (r *FirestoreProductRepository) applyPlan(p Plan) firestore.Query {
	q := r.client.Collection(r.collection).Query
	for _, pred := range p.Predicates {
		q = q.Where(pred.Field, string(pred.Op), pred.Value)
	}
	if p.SortField != "" {
		dir := firestore.Asc
		if p.SortDesc {
			dir = firestore.Desc
		}
		q = q.OrderBy(p.SortField, dir)
	}
	if p.Windowed() {
		q = q.Offset(p.Offset).Limit(p.Limit)
	}
	return q
}

// List executes the count plan and the fetch plan for the filters. The two
// legs are independent and run concurrently; both observe the filter values
// captured at normalization time.
func (r *FirestoreProductRepository) List(ctx context.Context, filters ListFilters) ([]Product, int64, error) {
	countPlan, fetchPlan := BuildPlans(filters)

	start := time.Now()
	var (
		total    int64
		products []Product
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := r.runCount(gctx, countPlan)
		if err != nil {
			return err
		}
		total = n
		return nil
	})

	g.Go(func() error {
		items, err := r.runFetch(gctx, fetchPlan)
		if err != nil {
			return err
		}
		products = items
		return nil
	})

	if err := g.Wait(); err != nil {
		if r.metrics != nil {
			r.metrics.StoreQueryErrorsTotal.Add(ctx, 1)
		}
		return nil, 0, err
	}

	if r.metrics != nil {
		r.metrics.StoreQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	return products, total, nil
}

func (r *FirestoreProductRepository) runCount(ctx context.Context, plan Plan) (int64, error) {
	q := r.applyPlan(plan)
	agg := q.NewAggregationQuery().WithCount("total")
	results, err := agg.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to run count query: %w", err)
	}

	raw, ok := results["total"]
	if !ok {
		return 0, fmt.Errorf("count query returned no total aggregation")
	}
	value, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count query returned unexpected type %T", raw)
	}
	return value.GetIntegerValue(), nil
}

func (r *FirestoreProductRepository) runFetch(ctx context.Context, plan Plan) ([]Product, error) {
	iter := r.applyPlan(plan).Documents(ctx)
	defer iter.Stop()

	products := []Product{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate products: %w", err)
		}

		var p Product
		if err := doc.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode product %s: %w", doc.Ref.ID, err)
		}
		p.ID = doc.Ref.ID
		products = append(products, p)
	}
	return products, nil
}

func (r *FirestoreProductRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	doc, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	var p Product
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func (r *FirestoreProductRepository) Create(ctx context.Context, p Product) (*Product, error) {
	ref, _, err := r.client.Collection(r.collection).Add(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	p.ID = ref.ID
	return &p, nil
}

// Update merges the given fields into an existing document. Existence is
// the service's responsibility; a merge against an absent id would create
// it.
func (r *FirestoreProductRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	_, err := r.client.Collection(r.collection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return nil
}

func (r *FirestoreProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(r.collection).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// DeleteImage removes the blob a public URL points at. Best-effort by
// contract: callers log and swallow any returned error, so a stale blob is
// never fatal to the enclosing mutation.
func (r *FirestoreProductRepository) DeleteImage(ctx context.Context, imageURL string) error {
	if r.bucket == nil {
		return fmt.Errorf("storage bucket is not configured")
	}

	objectPath, err := objectPathFromURL(imageURL, r.bucketName)
	if err != nil {
		return err
	}

	if err := r.bucket.Object(objectPath).Delete(ctx); err != nil {
		if r.metrics != nil {
			r.metrics.BlobDeleteFailuresTotal.Add(ctx, 1)
		}
		return fmt.Errorf("failed to delete blob %s: %w", objectPath, err)
	}

	r.logger.InfoContext(ctx, "Deleted image from storage", slog.String("object", objectPath))
	return nil
}

// objectPathFromURL extracts the object path from a public storage URL,
// e.g. https://storage.googleapis.com/bucket/products/x.jpg -> products/x.jpg.
func objectPathFromURL(imageURL, bucketName string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid image URL %q: %w", imageURL, err)
	}

	prefix := "/" + bucketName + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", fmt.Errorf("image URL %q does not belong to bucket %s", imageURL, bucketName)
	}
	objectPath := strings.TrimPrefix(u.Path, prefix)
	if objectPath == "" {
		return "", fmt.Errorf("image URL %q has no object path", imageURL)
	}
	return objectPath, nil
}
