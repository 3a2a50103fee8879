package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/auth"
)

type fakeUsers struct {
	created []*models.User
	err     error
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.User) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	user.ID = int64(len(f.created) + 1)
	f.created = append(f.created, user)
	return user.ID, nil
}

func setup(t *testing.T) (*commandLine, *fakeUsers, *bytes.Buffer) {
	t.Helper()
	users := &fakeUsers{}
	out := &bytes.Buffer{}
	cli := &commandLine{
		migrate: func(context.Context) ([]string, error) {
			return []string{"001_init.sql"}, nil
		},
		reconcile: func(context.Context) (*dto.ReconcileResult, error) {
			return &dto.ReconcileResult{PointsCorrected: 2, ExperienceCorrected: 1, RanAt: time.Now()}, nil
		},
		users: users,
		out:   out,
	}
	return cli, users, out
}

func withPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func TestCommandLine_Usage(t *testing.T) {
	cli, _, out := setup(t)

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin"}), errHelp)
	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "lol"}), errHelp)
	assert.Contains(t, out.String(), "createadmin")
}

func TestCommandLine_Migrate(t *testing.T) {
	cli, _, out := setup(t)

	require.NoError(t, cli.run(context.Background(), []string{"admin", "migrate"}))
	assert.Contains(t, out.String(), "Applied 001_init.sql")

	out.Reset()
	cli.migrate = func(context.Context) ([]string, error) { return nil, nil }
	require.NoError(t, cli.run(context.Background(), []string{"admin", "migrate"}))
	assert.Contains(t, out.String(), "No pending migrations.")

	boom := errors.New("boom")
	cli.migrate = func(context.Context) ([]string, error) { return nil, boom }
	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "migrate"}), boom)
}

func TestCommandLine_CreateAdmin(t *testing.T) {
	args := []string{"admin", "createadmin", "-email", "root@mentorhub.app", "-first", "Root", "-last", "User"}

	tests := []struct {
		name     string
		args     []string
		password string
		repoErr  error
		wantErr  error
	}{
		{name: "missing flags", args: []string{"admin", "createadmin", "-email", "root@mentorhub.app"}, password: "s3cretpass", wantErr: errHelp},
		{name: "empty password", args: args, password: "", wantErr: errHelp},
		{name: "weak password", args: args, password: "password", wantErr: auth.ErrWeakPassword},
		{name: "duplicate email", args: args, password: "s3cretpass", repoErr: apperrors.ErrEmailAlreadyExists, wantErr: apperrors.ErrEmailAlreadyExists},
		{name: "ok", args: args, password: "s3cretpass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, users, out := setup(t)
			users.err = tt.repoErr
			withPassword(t, tt.password)

			err := cli.run(context.Background(), tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, users.created)
				return
			}
			require.NoError(t, err)
			require.Len(t, users.created, 1)
			assert.Equal(t, models.RoleAdmin, users.created[0].RoleType)
			assert.Contains(t, out.String(), "Admin root@mentorhub.app created")
		})
	}
}

func TestCommandLine_Reconcile(t *testing.T) {
	cli, _, out := setup(t)

	require.NoError(t, cli.run(context.Background(), []string{"admin", "reconcile"}))
	assert.Contains(t, out.String(), "Corrected 2 point balances and 1 experience totals")
}
