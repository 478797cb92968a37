//go:build integration

package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/repository"
)

func TestCreateWithTokenRollsBackOnTokenFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db.Pool)

	key := strings.Repeat("a", 40)
	first, token, err := users.CreateWithToken(ctx, model.User{Username: "first", PasswordHash: "x", IsActive: true}, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, token.UserID)

	_, _, err = users.CreateWithToken(ctx, model.User{Username: "second", PasswordHash: "x", IsActive: true}, key)
	require.Error(t, err)

	exists, err := users.ExistsByUsername(ctx, "second")
	require.NoError(t, err)
	assert.False(t, exists, "user row must roll back with its token")

	_, _, err = users.CreateWithToken(ctx, model.User{Username: "second", PasswordHash: "x", IsActive: true}, strings.Repeat("b", 40))
	require.NoError(t, err)
}
