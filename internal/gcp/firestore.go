package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/medpal/docextract/internal/models"
	"github.com/medpal/docextract/internal/store"
)

// NewFirestoreClient opens the client behind FirestoreStore. The record
// collection needs no setup; the first Create brings it into existence.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, errors.New("a project id is required to open the record store")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create Firestore client for project %s", projectID)
	}
	return client, nil
}

// FirestoreStore keeps one document per result record, keyed by its id.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Put creates the record document. An existing document is never replaced.
func (s *FirestoreStore) Put(ctx context.Context, rec *models.ResultRecord) error {
	_, err := s.client.Collection(s.collection).Doc(rec.DocumentID).Create(ctx, rec)
	if status.Code(err) == codes.AlreadyExists {
		return errors.Mark(fmt.Errorf("record %s: %w", rec.DocumentID, err), store.ErrRecordExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create record %s: %w", rec.DocumentID, err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, documentID string) (*models.ResultRecord, error) {
	snap, err := s.client.Collection(s.collection).Doc(documentID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errors.Mark(fmt.Errorf("record %s: %w", documentID, err), store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", documentID, err)
	}
	var rec models.ResultRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", documentID, err)
	}
	return &rec, nil
}

func (s *FirestoreStore) FindByHash(ctx context.Context, fileHash string) (string, bool, error) {
	docs, err := s.client.Collection(s.collection).
		Where("fileHash", "==", fileHash).
		Where("processingStatus", "==", models.StatusCompleted).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return docs[0].Ref.ID, true, nil
	}
	return "", false, nil
}
