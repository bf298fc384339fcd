package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKey(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, IsDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`)))

	assert.False(t, IsDuplicateKey(nil))
	assert.False(t, IsDuplicateKey(gorm.ErrRecordNotFound))
}
