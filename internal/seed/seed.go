package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/mentorhub/internal/app/models"
	appRepos "github.com/yigit/mentorhub/internal/app/repositories"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/auth"
)

// Options controls the default admin account
type Options struct {
	AdminEmail    string
	AdminPassword string
}

// DefaultPointReasons are created on first start
var DefaultPointReasons = []models.PointReason{
	{Name: "Attendance", Description: "Attended a lesson", DefaultAmount: 5},
	{Name: "Homework completed", Description: "All weekly exercises submitted", DefaultAmount: 10},
	{Name: "Active participation", Description: "Asked or answered questions in class", DefaultAmount: 5},
	{Name: "Project milestone", Description: "Delivered a project milestone", DefaultAmount: 25},
	{Name: "Helping a classmate", DefaultAmount: 5},
	{Name: "Late homework", Description: "Homework submitted after the deadline", DefaultAmount: -5},
}

// CreateDefaultData creates the default point reasons and, when a password is configured, the admin account.
// It is safe to run on every start.
func CreateDefaultData(ctx context.Context, conn db.DBTX, opts Options, lgr zerolog.Logger) error {
	reasonRepo := appRepos.NewPointReasonRepository(conn)
	userRepo := appRepos.NewUserRepository(conn)

	lgr.Info().Msg("Checking/Creating default data (point reasons, admin)...")
	var finalErr error

	created := 0
	for _, r := range DefaultPointReasons {
		reason := r
		reason.IsActive = true
		added, err := reasonRepo.CreateIfMissing(ctx, &reason)
		if err != nil {
			lgr.Error().Err(err).Str("reason", reason.Name).Msg("Error creating point reason")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if added {
			created++
		}
	}
	if created > 0 {
		lgr.Info().Int("count", created).Msg("Default point reasons created")
	}

	if opts.AdminPassword == "" {
		lgr.Debug().Msg("No seed admin password configured, skipping admin account")
		return finalErr
	}

	_, err := userRepo.GetUserByEmail(ctx, opts.AdminEmail)
	switch {
	case err == nil:
		return finalErr
	case !errors.Is(err, apperrors.ErrUserNotFound):
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return errors.Join(finalErr, err)
	}

	if _, err := CreateAdmin(ctx, userRepo, opts.AdminEmail, "System", "Admin", opts.AdminPassword); err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin user")
		return errors.Join(finalErr, err)
	}
	lgr.Info().Str("email", opts.AdminEmail).Msg("Default admin user created")
	return finalErr
}

// AdminCreator is the part of the user repository needed to create an admin
type AdminCreator interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
}

// CreateAdmin hashes password and inserts an active ADMIN account
func CreateAdmin(ctx context.Context, users AdminCreator, email, firstName, lastName, password string) (*models.User, error) {
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Password:  hash,
		FirstName: firstName,
		LastName:  lastName,
		RoleType:  models.RoleAdmin,
		IsActive:  true,
	}
	if _, err := users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
