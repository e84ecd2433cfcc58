package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
)

// AccountRepository reads and writes the four account collections. The role
// picks the collection; callers decode into the matching model.
type AccountRepository struct {
	collections map[string]*mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		collections: map[string]*mongo.Collection{
			models.RoleUser:   db.Collection(config.UsersCollection),
			models.RoleSeller: db.Collection(config.SellersCollection),
			models.RoleRider:  db.Collection(config.RidersCollection),
			models.RoleAdmin:  db.Collection(config.AdminsCollection),
		},
	}
}

func (r *AccountRepository) collection(role string) (*mongo.Collection, error) {
	coll, ok := r.collections[role]
	if !ok {
		return nil, ErrUnknownRole
	}
	return coll, nil
}

// Create inserts a new account document and returns its id.
func (r *AccountRepository) Create(ctx context.Context, role string, doc interface{}) (primitive.ObjectID, error) {
	coll, err := r.collection(role)
	if err != nil {
		return primitive.NilObjectID, err
	}
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, role, email string, out interface{}) error {
	coll, err := r.collection(role)
	if err != nil {
		return err
	}
	return translate(coll.FindOne(ctx, bson.M{"email": email}).Decode(out))
}

func (r *AccountRepository) FindByID(ctx context.Context, role string, id primitive.ObjectID, out interface{}) error {
	coll, err := r.collection(role)
	if err != nil {
		return err
	}
	return translate(coll.FindOne(ctx, bson.M{"_id": id}).Decode(out))
}

// UpdateFields applies a $set to one account.
func (r *AccountRepository) UpdateFields(ctx context.Context, role string, id primitive.ObjectID, set bson.M) error {
	coll, err := r.collection(role)
	if err != nil {
		return err
	}
	set["updatedAt"] = time.Now()
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) SetOTP(ctx context.Context, role string, id primitive.ObjectID, otp models.OTPInfo) error {
	return r.UpdateFields(ctx, role, id, bson.M{"otpInfo": otp})
}

// MarkVerified flags the email as verified and clears the pending code.
func (r *AccountRepository) MarkVerified(ctx context.Context, role string, id primitive.ObjectID) error {
	coll, err := r.collection(role)
	if err != nil {
		return err
	}
	_, err = coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"isVerified": true, "isActive": true, "updatedAt": time.Now()},
		"$unset": bson.M{"otpInfo": ""},
	})
	return translate(err)
}

// UpdatePassword stores a new hash and clears the reset code.
func (r *AccountRepository) UpdatePassword(ctx context.Context, role string, id primitive.ObjectID, hash string) error {
	coll, err := r.collection(role)
	if err != nil {
		return err
	}
	_, err = coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password": hash, "updatedAt": time.Now()},
		"$unset": bson.M{"otpInfo": ""},
	})
	return translate(err)
}

func (r *AccountRepository) RecordLogin(ctx context.Context, role string, id primitive.ObjectID) error {
	return r.UpdateFields(ctx, role, id, bson.M{"lastLoginAt": time.Now()})
}

func (r *AccountRepository) SetApproval(ctx context.Context, role string, id primitive.ObjectID, status, reason string) error {
	set := bson.M{"approvalStatus": status}
	if reason != "" {
		set["rejectionReason"] = reason
	}
	return r.UpdateFields(ctx, role, id, set)
}

func (r *AccountRepository) SetActive(ctx context.Context, role string, id primitive.ObjectID, active bool) error {
	return r.UpdateFields(ctx, role, id, bson.M{"isActive": active})
}

func (r *AccountRepository) SetFCMToken(ctx context.Context, role string, id primitive.ObjectID, token string) error {
	return r.UpdateFields(ctx, role, id, bson.M{"fcmToken": token})
}

// AdjustBalance adds delta to a seller or rider balance.
func (r *AccountRepository) AdjustBalance(ctx context.Context, role string, id primitive.ObjectID, delta float64) error {
	coll, err := r.collection(role)
	if err != nil {
		return err
	}
	_, err = coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"balance": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	return translate(err)
}

// List decodes a page of accounts into out (a pointer to a slice) and returns
// the total number of matches.
func (r *AccountRepository) List(ctx context.Context, role string, filter bson.M, page, limit int64, out interface{}) (int64, error) {
	coll, err := r.collection(role)
	if err != nil {
		return 0, err
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(limit).
		SetProjection(bson.M{"password": 0, "otpInfo": 0})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	return total, cursor.All(ctx, out)
}

func (r *AccountRepository) Count(ctx context.Context, role string, filter bson.M) (int64, error) {
	coll, err := r.collection(role)
	if err != nil {
		return 0, err
	}
	return coll.CountDocuments(ctx, filter)
}

// AvailableRiders returns approved, active riders that are on duty.
func (r *AccountRepository) AvailableRiders(ctx context.Context) ([]models.Rider, error) {
	coll, _ := r.collection(models.RoleRider)
	cursor, err := coll.Find(ctx, bson.M{
		"approvalStatus": models.ApprovalApproved,
		"isActive":       true,
		"isAvailable":    true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var riders []models.Rider
	if err := cursor.All(ctx, &riders); err != nil {
		return nil, err
	}
	return riders, nil
}
