package httpapi

import (
	"context"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
	"github.com/fastygo/storefront/internal/infrastructure/apiclient"
	"github.com/fastygo/storefront/repository"
)

type userRepository struct {
	client    *apiclient.Client
	endpoints config.Endpoints
}

// NewUserRepository instantiates an API-backed profile repository.
func NewUserRepository(client *apiclient.Client, endpoints config.Endpoints) repository.UserRepository {
	return &userRepository{client: client, endpoints: endpoints}
}

func (r *userRepository) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := r.client.Get(ctx, r.endpoints.Me, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	var user domain.User
	if err := r.client.Put(ctx, r.endpoints.Me, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
