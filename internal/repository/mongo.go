package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/model"
)

const accountCollection = "accounts"

type accountMongoRepository struct {
	db *mongo.Database
}

// NewAccountMongoRepository creates the MongoDB-backed account repository and
// ensures its indexes. Uniqueness is enforced only among live accounts via
// partial indexes keyed on a null deleted_at.
func NewAccountMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AccountRepository {
	collection := db.Collection(accountCollection)

	notDeletedFilter := bson.D{{Key: "deleted_at", Value: bson.D{{Key: "$type", Value: "null"}}}}
	tokenFilter := func(field string) bson.D {
		return bson.D{{Key: "$and", Value: bson.A{
			notDeletedFilter,
			bson.D{{Key: field, Value: bson.D{{Key: "$type", Value: "string"}}}},
		}}}
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(notDeletedFilter),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(notDeletedFilter),
		},
		{
			Keys:    bson.D{{Key: "password_reset_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(tokenFilter("password_reset_token")),
		},
		{
			Keys:    bson.D{{Key: "email_verification_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(tokenFilter("email_verification_token")),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create account indexes")
	}

	return &accountMongoRepository{db: db}
}

func (r *accountMongoRepository) collection() *mongo.Collection {
	return r.db.Collection(accountCollection)
}

// notDeleted applies the soft-delete predicate. Every account lookup used for
// auth purposes must go through it; the filter is never replicated ad hoc.
func notDeleted(filter bson.M) bson.M {
	filter["deleted_at"] = nil
	return filter
}

// translateStoreError maps driver failures into the taxonomy once, at the
// store boundary.
func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return apperror.Wrap(apperror.Conflict, "username or email already in use", err)
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperror.Wrap(apperror.NotFound, "account not found", err)
	default:
		return apperror.Wrap(apperror.Database, "database operation failed", err)
	}
}

func (r *accountMongoRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.DeletedAt = nil

	result, err := r.collection().InsertOne(ctx, account)
	if err != nil {
		return nil, translateStoreError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		account.ID = objectID
	}

	return account, nil
}

func (r *accountMongoRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.Wrap(apperror.NotFound, "account not found", err)
	}

	return r.findOne(ctx, notDeleted(bson.M{"_id": objectID}))
}

func (r *accountMongoRepository) GetByLogin(ctx context.Context, login string) (*model.Account, error) {
	filter := notDeleted(bson.M{
		"$or": bson.A{
			bson.M{"username": login},
			bson.M{"email": login},
		},
	})

	return r.findOne(ctx, filter)
}

func (r *accountMongoRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, notDeleted(bson.M{"email": email}))
}

func (r *accountMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	var account model.Account
	if err := r.collection().FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, translateStoreError(err)
	}

	return &account, nil
}

func (r *accountMongoRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) (*model.Account, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.Wrap(apperror.NotFound, "account not found", err)
	}

	update := bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	}}

	return r.findOneAndUpdate(ctx, notDeleted(bson.M{"_id": objectID}), update)
}

func (r *accountMongoRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return r.setToken(ctx, id, "password_reset_token", "password_reset_token_expires_at", token, expiresAt)
}

func (r *accountMongoRepository) SetVerificationToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return r.setToken(ctx, id, "email_verification_token", "email_verification_token_expires_at", token, expiresAt)
}

func (r *accountMongoRepository) setToken(ctx context.Context, id, tokenField, expiryField, token string, expiresAt time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return apperror.Wrap(apperror.NotFound, "account not found", err)
	}

	update := bson.M{"$set": bson.M{
		tokenField:   token,
		expiryField:  expiresAt,
		"updated_at": time.Now(),
	}}

	result, err := r.collection().UpdateOne(ctx, notDeleted(bson.M{"_id": objectID}), update)
	if err != nil {
		return translateStoreError(err)
	}
	if result.MatchedCount == 0 {
		return apperror.New(apperror.NotFound, "account not found")
	}

	return nil
}

func (r *accountMongoRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string) (*model.Account, error) {
	now := time.Now()
	filter := notDeleted(bson.M{
		"password_reset_token":            token,
		"password_reset_token_expires_at": bson.M{"$gt": now},
	})
	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    now,
		},
		"$unset": bson.M{
			"password_reset_token":            "",
			"password_reset_token_expires_at": "",
		},
	}

	return r.consumeToken(ctx, "password_reset_token", "password_reset_token_expires_at", token, filter, update)
}

func (r *accountMongoRepository) ConsumeVerificationToken(ctx context.Context, token string) (*model.Account, error) {
	now := time.Now()
	filter := notDeleted(bson.M{
		"email_verification_token":            token,
		"email_verification_token_expires_at": bson.M{"$gt": now},
	})
	update := bson.M{
		"$set": bson.M{
			"email_verified": true,
			"updated_at":     now,
		},
		"$unset": bson.M{
			"email_verification_token":            "",
			"email_verification_token_expires_at": "",
		},
	}

	return r.consumeToken(ctx, "email_verification_token", "email_verification_token_expires_at", token, filter, update)
}

// consumeToken performs the single-use consumption as one atomic
// read-modify-write: the filter admits only a live account holding the
// unexpired token, and the update clears the token and applies its effect in
// the same write. The miss path only classifies the failure; a concurrent
// consumer observes not-found or expired, never a double consume.
func (r *accountMongoRepository) consumeToken(
	ctx context.Context,
	tokenField, expiryField, token string,
	filter, update bson.M,
) (*model.Account, error) {
	account, err := r.findOneAndUpdate(ctx, filter, update)
	if err == nil {
		return account, nil
	}
	if !apperror.Is(err, apperror.NotFound) {
		return nil, err
	}

	// Distinguish a stale token from an unknown one.
	var stale model.Account
	findErr := r.collection().FindOne(ctx, notDeleted(bson.M{tokenField: token})).Decode(&stale)
	if findErr != nil {
		if errors.Is(findErr, mongo.ErrNoDocuments) {
			return nil, ErrTokenNotFound
		}
		return nil, translateStoreError(findErr)
	}

	// Expired: clear the slot so the token can never match again.
	clear := bson.M{"$unset": bson.M{tokenField: "", expiryField: ""}}
	_, _ = r.collection().UpdateOne(ctx, notDeleted(bson.M{tokenField: token}), clear)

	return nil, ErrTokenExpired
}

func (r *accountMongoRepository) SoftDelete(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return apperror.Wrap(apperror.NotFound, "account not found", err)
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"deleted_at": now,
		"updated_at": now,
	}}

	result, err := r.collection().UpdateOne(ctx, notDeleted(bson.M{"_id": objectID}), update)
	if err != nil {
		return translateStoreError(err)
	}
	if result.MatchedCount == 0 {
		return apperror.New(apperror.NotFound, "account not found")
	}

	return nil
}

func (r *accountMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.Account, error) {
	result := r.collection().FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, translateStoreError(result.Err())
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, translateStoreError(err)
	}

	return &account, nil
}
