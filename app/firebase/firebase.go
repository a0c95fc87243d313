package firebase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/mlopezr/catalog-api/config"
)

const defaultRetries = 5

// Clients bundles the process-wide Firestore and Cloud Storage handles.
// They are constructed once at startup and shared read-only across all
// requests; no request mutates them after initialization.
type Clients struct {
	Firestore *firestore.Client
	Storage   *storage.Client
	Bucket    *storage.BucketHandle
}

// Init creates the Firestore and Storage clients from configuration.
func Init(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Clients, error) {
	if cfg == nil || cfg.Firebase.ProjectID == "" {
		return nil, fmt.Errorf("firebase configuration is missing a project ID")
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}

	fsClient, err := firestore.NewClient(ctx, cfg.Firebase.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	var bucket *storage.BucketHandle
	if cfg.Firebase.StorageBucket != "" {
		bucket = stClient.Bucket(cfg.Firebase.StorageBucket)
	} else {
		logger.Warn("No storage bucket configured; image upload and cleanup are disabled")
	}

	logger.Info("Firebase clients initialized",
		slog.String("project_id", cfg.Firebase.ProjectID),
		slog.String("bucket", cfg.Firebase.StorageBucket),
	)

	return &Clients{
		Firestore: fsClient,
		Storage:   stClient,
		Bucket:    bucket,
	}, nil
}

// Close releases both clients. Safe to call once at shutdown.
func (c *Clients) Close() {
	if c.Firestore != nil {
		c.Firestore.Close()
	}
	if c.Storage != nil {
		c.Storage.Close()
	}
}

// WaitForStore waits for Firestore to answer a trivial read. Firestore has
// no ping RPC, so a one-document query against the products collection
// stands in for one.
func WaitForStore(ctx context.Context, clients *Clients, collection string, logger *slog.Logger) bool {
	maxAttempts := defaultRetries
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		_, err := clients.Firestore.Collection(collection).Limit(1).Documents(ctx).GetAll()
		if err == nil {
			logger.InfoContext(ctx, "Firestore connection successful")
			return true
		}

		waitDuration := time.Duration(attempts) * 200 * time.Millisecond
		logger.WarnContext(ctx, "Firestore probe failed, retrying...",
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("wait_duration", waitDuration),
			slog.String("error", err.Error()),
		)
		if attempts < maxAttempts {
			time.Sleep(waitDuration)
		}
	}
	logger.ErrorContext(ctx, "Firestore connection failed after multiple retries")
	return false
}
