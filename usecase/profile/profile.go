package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/repository"
)

// Registrar creates accounts. Registration does not need a session.
type Registrar interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
}

// Session receives profile changes so the stored user stays current.
type Session interface {
	IsAuthenticated() bool
	SetUser(ctx context.Context, user *domain.User)
}

type UseCase struct {
	users     repository.UserRepository
	registrar Registrar
	session   Session
	logger    *zap.Logger
}

func New(users repository.UserRepository, registrar Registrar, session Session, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:     users,
		registrar: registrar,
		session:   session,
		logger:    logger,
	}
}

// GetProfile fetches the signed-in user from the backend and refreshes the
// session copy.
func (uc *UseCase) GetProfile(ctx context.Context) (*domain.User, error) {
	if !uc.session.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	user, err := uc.users.Me(ctx)
	if err != nil {
		return nil, err
	}
	uc.session.SetUser(ctx, user)
	return user, nil
}

func (uc *UseCase) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	if !uc.session.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	if update == (domain.ProfileUpdate{}) {
		return nil, domain.NewError(domain.ErrCodeValidation, "nothing to update")
	}
	user, err := uc.users.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	uc.session.SetUser(ctx, user)
	uc.logger.Info("profile updated", zap.Int64("user_id", user.ID))
	return user, nil
}

// Register validates reg locally before creating the account.
func (uc *UseCase) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	user, err := uc.registrar.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("account registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}
