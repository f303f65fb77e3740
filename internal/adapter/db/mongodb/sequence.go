package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	pkgerrors "proximity-service/pkg/errors"
)

const (
	collectionSequences = "seq"
	sequenceUID         = "uid"
)

// SequenceMongo issues monotonically increasing uids from a persisted
// counter document. The increment is a single FindOneAndUpdate, so two
// concurrent allocations can never observe the same value.
type SequenceMongo struct {
	seq *mongo.Collection
	log *zap.Logger
}

// NewSequenceMongo creates a new instance of SequenceMongo.
func NewSequenceMongo(db *mongo.Database, log *zap.Logger) *SequenceMongo {
	return &SequenceMongo{seq: db.Collection(collectionSequences), log: log}
}

// sequenceDocument is the singleton counter document, keyed by a fixed id.
type sequenceDocument struct {
	ID  string `bson:"_id"`
	Val int64  `bson:"val"`
}

// NextUID atomically increments the counter and returns the new value.
// The upsert covers first use: an absent counter starts at 0, so the
// first issued uid is 1. On failure no id is fabricated; the caller gets
// an UnavailableError and must abort the creation.
func (s *SequenceMongo) NextUID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc sequenceDocument
	err := s.seq.FindOneAndUpdate(ctx,
		bson.M{"_id": sequenceUID},
		bson.M{"$inc": bson.M{"val": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		s.log.Error("failed to allocate uid", zap.Error(err))
		return 0, pkgerrors.NewUnavailableError("failed to allocate uid", err)
	}

	s.log.Debug("uid allocated", zap.Int64("uid", doc.Val))
	return doc.Val, nil
}

// Reset sets the counter back to 0. Only the bulk-reset maintenance flow
// calls this; uids issued before a reset are gone for good in that flow
// because the user collection is cleared alongside.
func (s *SequenceMongo) Reset(ctx context.Context) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.seq.UpdateOne(ctx,
		bson.M{"_id": sequenceUID},
		bson.M{"$set": bson.M{"val": int64(0)}},
		opts,
	)
	if err != nil {
		s.log.Error("failed to reset uid sequence", zap.Error(err))
		return pkgerrors.NewUnavailableError("failed to reset uid sequence", err)
	}

	s.log.Info("uid sequence reset")
	return nil
}
