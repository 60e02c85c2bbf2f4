package storage

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

const firestoreCollection = "tracker_state"

// FirestoreStore keeps the tracker state in one Firestore document per
// tracked player. Every save replaces the whole document, mirroring the
// file backend's all-or-nothing behavior.
type FirestoreStore struct {
	client *firestore.Client
	doc    *firestore.DocumentRef
}

func NewFirestoreStore(ctx context.Context, projectID, username string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &FirestoreStore{
		client: client,
		doc:    client.Collection(firestoreCollection).Doc(stateDocID(username)),
	}, nil
}

// stateDocID derives the document ID from the player name. The public
// API treats usernames case-insensitively, so the ID is lowercased.
func stateDocID(username string) string {
	return strings.ToLower(username)
}

// Load reads the state document. A missing document is a first run and
// yields the zero state.
func (s *FirestoreStore) Load(ctx context.Context) (models.PersistedState, error) {
	var state models.PersistedState
	snap, err := s.doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return state, nil
		}
		return state, fmt.Errorf("failed to get state document: %w", err)
	}
	if err := snap.DataTo(&state); err != nil {
		return models.PersistedState{}, fmt.Errorf("failed to unmarshal state document: %w", err)
	}
	return state, nil
}

func (s *FirestoreStore) Save(ctx context.Context, state models.PersistedState) error {
	if _, err := s.doc.Set(ctx, state); err != nil {
		return fmt.Errorf("failed to set state document: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
