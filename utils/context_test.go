package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateCtxWithRqID(t *testing.T) {
	ctx := CreateCtxWithRqID(context.Background(), "given")
	assert.Equal(t, "given", GetRequestIDFromCtx(ctx))

	generated := GetRequestIDFromCtx(CreateCtxWithRqID(context.Background(), ""))
	assert.Len(t, generated, 36)

	assert.Empty(t, GetRequestIDFromCtx(context.Background()))
}

func TestUserIDFromCtx(t *testing.T) {
	_, ok := GetUserIDFromCtx(context.Background())
	assert.False(t, ok)

	userID, ok := GetUserIDFromCtx(CreateCtxWithUserID(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)
}
