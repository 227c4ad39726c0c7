package repository

import (
	"context"
	"errors"
	"time"

	"despatch-advice-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implementation
type MongoDespatchRepository struct {
	col *mongo.Collection
}

func NewMongoDespatchRepository(db *mongo.Database) *MongoDespatchRepository {
	return &MongoDespatchRepository{col: db.Collection("despatch_advices")}
}

// EnsureIndexes crea el índice único sobre doc_uuid. Es lo que garantiza
// insert-if-absent aunque haya varias instancias del servicio.
func (m *MongoDespatchRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doc_uuid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "despatch_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	})
	return err
}

func (m *MongoDespatchRepository) Insert(ctx context.Context, d *model.DespatchAdvice) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (m *MongoDespatchRepository) FindByUUID(ctx context.Context, docUUID string) (*model.DespatchAdvice, error) {
	return m.findOne(ctx, bson.M{"doc_uuid": docUUID})
}

// FindByDespatchID devuelve el más antiguo si hay varios con el mismo ID.
func (m *MongoDespatchRepository) FindByDespatchID(ctx context.Context, despatchID string) (*model.DespatchAdvice, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return m.findOne(ctx, bson.M{"despatch_id": despatchID}, opts)
}

func (m *MongoDespatchRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.DespatchAdvice, error) {
	var res model.DespatchAdvice
	err := m.col.FindOne(ctx, filter, opts...).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkCancelled sólo toca los metadatos; el XML guardado no cambia.
func (m *MongoDespatchRepository) MarkCancelled(ctx context.Context, docUUID, reason string) error {
	// El filtro por cancelled=false hace la transición atómica
	filter := bson.M{"doc_uuid": docUUID, "cancelled": false}
	update := bson.M{
		"$set": bson.M{
			"cancelled":           true,
			"cancellation_reason": reason,
			"updated_at":          time.Now().UTC(),
		},
	}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nada actualizado: o no existe o ya estaba cancelado
	if _, err := m.FindByUUID(ctx, docUUID); err != nil {
		return err
	}
	return ErrAlreadyCancelled
}
