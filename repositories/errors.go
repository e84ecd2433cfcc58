package repositories

import (
	"errors"
	"math"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("document already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("document changed concurrently")
	ErrUnknownRole       = errors.New("unknown role")
)

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func skip(page, limit int64) int64 {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt64/limit {
		return math.MaxInt64 / limit * limit
	}
	return (page - 1) * limit
}
