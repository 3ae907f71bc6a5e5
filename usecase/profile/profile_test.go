package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/storefront/domain"
)

type fakeUsers struct {
	user *domain.User
}

func (f *fakeUsers) Me(context.Context) (*domain.User, error) {
	return f.user, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	u := *f.user
	if upd.FullName != "" {
		u.FullName = upd.FullName
	}
	return &u, nil
}

type fakeRegistrar struct{ calls int }

func (f *fakeRegistrar) Register(_ context.Context, reg domain.Registration) (*domain.User, error) {
	f.calls++
	return &domain.User{ID: 3, Username: reg.Username, Email: reg.Email}, nil
}

type fakeSession struct {
	authenticated bool
	user          *domain.User
}

func (f *fakeSession) IsAuthenticated() bool { return f.authenticated }

func (f *fakeSession) SetUser(_ context.Context, u *domain.User) { f.user = u }

func TestProfileRequiresSession(t *testing.T) {
	uc := New(&fakeUsers{}, nil, &fakeSession{}, nil)

	_, err := uc.GetProfile(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = uc.UpdateProfile(context.Background(), domain.ProfileUpdate{FullName: "x"})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestUpdateProfileRefreshesSession(t *testing.T) {
	sess := &fakeSession{authenticated: true}
	uc := New(&fakeUsers{user: &domain.User{ID: 7, Username: "maria"}}, nil, sess, nil)

	_, err := uc.UpdateProfile(context.Background(), domain.ProfileUpdate{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	user, err := uc.UpdateProfile(context.Background(), domain.ProfileUpdate{FullName: "Maria Souza"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", user.FullName)
	require.NotNil(t, sess.user)
	assert.Equal(t, "Maria Souza", sess.user.FullName)

	got, err := uc.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "maria", got.Username)
}

func TestRegisterValidatesFirst(t *testing.T) {
	reg := &fakeRegistrar{}
	uc := New(nil, reg, &fakeSession{}, nil)
	ctx := context.Background()

	cases := map[string]domain.Registration{
		"bad email":      {Email: "nope", Username: "maria", Password: "Senha@123", ConfirmPassword: "Senha@123"},
		"short username": {Email: "m@example.com", Username: "ma", Password: "Senha@123", ConfirmPassword: "Senha@123"},
		"no uppercase":   {Email: "m@example.com", Username: "maria", Password: "senha@123", ConfirmPassword: "senha@123"},
		"no special":     {Email: "m@example.com", Username: "maria", Password: "Senha1234", ConfirmPassword: "Senha1234"},
		"no digit":       {Email: "m@example.com", Username: "maria", Password: "Senha@abc", ConfirmPassword: "Senha@abc"},
		"mismatch":       {Email: "m@example.com", Username: "maria", Password: "Senha@123", ConfirmPassword: "Senha@124"},
	}
	for name, r := range cases {
		_, err := uc.Register(ctx, r)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation), name)
	}
	assert.Zero(t, reg.calls)

	user, err := uc.Register(ctx, domain.Registration{Email: "m@example.com", Username: "maria", Password: "Senha@123", ConfirmPassword: "Senha@123"})
	require.NoError(t, err)
	assert.Equal(t, "maria", user.Username)
}
