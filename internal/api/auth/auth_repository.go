package auth

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mlopezr/catalog-api/internal/api"
)

var _ AuthRepo = (*FirestoreAuthRepo)(nil)

type AuthRepo interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
}

type FirestoreAuthRepo struct {
	logger     *slog.Logger
	client     *firestore.Client
	collection string
}

func NewFirestoreAuthRepo(client *firestore.Client, collection string, logger *slog.Logger) *FirestoreAuthRepo {
	return &FirestoreAuthRepo{
		logger:     logger,
		client:     client,
		collection: collection,
	}
}

// FindByEmail returns api.ErrNotFound when no account carries the email.
// Email uniqueness relies on callers running this check before Create; the
// check-then-write pair is not atomic against the store, so duplicate
// emails are possible under concurrent registration. Known limitation.
func (r *FirestoreAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	iter := r.client.Collection(r.collection).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	var user User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

func (r *FirestoreAuthRepo) FindByID(ctx context.Context, id string) (*User, error) {
	doc, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	var user User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

func (r *FirestoreAuthRepo) Create(ctx context.Context, user User) (*User, error) {
	ref, _, err := r.client.Collection(r.collection).Add(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = ref.ID
	return &user, nil
}
