package repository

import (
	"context"

	"github.com/fastygo/storefront/domain"
)

type UserRepository interface {
	Me(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error)
}
