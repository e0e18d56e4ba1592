package repository

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestPreviewKeepsShortContent(t *testing.T) {
	assert.Equal(t, "hello", Preview("hello"))
	assert.Equal(t, "", Preview(""))
}

func TestPreviewTruncatesByRunes(t *testing.T) {
	long := strings.Repeat("好", 200)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("好", previewRunes), got)
}

func TestPreviewExactBoundary(t *testing.T) {
	exact := strings.Repeat("a", previewRunes)
	assert.Equal(t, exact, Preview(exact))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.True(t, isDuplicateKey(errors.Wrap(&mysql.MySQLError{Number: 1062}, "create conversation")))
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))

	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}))
	assert.False(t, isDuplicateKey(errors.New("plain error")))
	assert.False(t, isDuplicateKey(nil))
}
