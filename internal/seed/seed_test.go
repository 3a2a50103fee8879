package seed

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/pkg/auth"
)

func TestCreateDefaultData_ReasonsOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	for i, r := range DefaultPointReasons {
		affected := int64(1)
		if i == 0 {
			affected = 0 // already present
		}
		mock.ExpectExec("INSERT INTO point_reasons").
			WithArgs(r.Name, r.Description, r.DefaultAmount, true).
			WillReturnResult(pgxmock.NewResult("INSERT", affected))
	}

	err = CreateDefaultData(context.Background(), mock, Options{AdminEmail: "admin@mentorhub.app"}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type capturingCreator struct {
	created *models.User
}

func (c *capturingCreator) CreateUser(_ context.Context, user *models.User) (int64, error) {
	user.ID = 1
	c.created = user
	return 1, nil
}

func TestCreateAdmin(t *testing.T) {
	users := &capturingCreator{}

	user, err := CreateAdmin(context.Background(), users, "root@mentorhub.app", "Root", "User", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.RoleType)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cretpass", users.created.Password)
	assert.True(t, auth.CheckPassword(users.created.Password, "s3cretpass"))
}

func TestCreateAdmin_WeakPassword(t *testing.T) {
	users := &capturingCreator{}

	_, err := CreateAdmin(context.Background(), users, "root@mentorhub.app", "Root", "User", "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
	assert.Nil(t, users.created)
}
