package database

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// IsDuplicateKey reports whether err is a unique constraint violation from
// any of the stores used by the services.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
