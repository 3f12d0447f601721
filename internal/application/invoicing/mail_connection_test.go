package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type connectionFixture struct {
	provider *MockMailAuthorizer
	states   *MockStateIssuer
	sealer   *MockTokenSealer
	profiles *MockIssuerProfileRepository
	service  *MailConnectionService
}

func newConnectionFixture() *connectionFixture {
	f := &connectionFixture{
		provider: new(MockMailAuthorizer),
		states:   new(MockStateIssuer),
		sealer:   new(MockTokenSealer),
		profiles: new(MockIssuerProfileRepository),
	}
	f.service = NewMailConnectionService(f.provider, f.states, f.sealer, f.profiles, nil).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func TestMailConnectionService_AuthorizationURL(t *testing.T) {
	f := newConnectionFixture()
	f.states.On("Issue", mock.Anything, "user-1").Return("signed-state", nil)
	f.provider.On("AuthorizationURL", "signed-state").Return("https://accounts.test/auth?state=signed-state")

	url, err := f.service.AuthorizationURL(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.test/auth?state=signed-state", url)

	_, err = f.service.AuthorizationURL(context.Background(), "")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestMailConnectionService_CompleteAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the sealed token", func(t *testing.T) {
		f := newConnectionFixture()
		f.states.On("Consume", mock.Anything, "state-1").Return("user-1", nil)
		f.provider.On("ExchangeCode", mock.Anything, "code-1").
			Return(&mail.Grant{RefreshToken: "refresh-1", MailboxAddress: "owner@gmail.test"}, nil)
		f.sealer.On("Seal", "refresh-1", "user-1").Return("v1.sealed", nil)
		f.profiles.On("ConnectMail", mock.Anything, "user-1", "owner@gmail.test", "v1.sealed", fixedNow).Return(nil)

		principal, err := f.service.CompleteAuthorization(ctx, "code-1", "state-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal)
		f.profiles.AssertExpectations(t)
	})

	t.Run("no refresh token leaves the profile untouched", func(t *testing.T) {
		f := newConnectionFixture()
		f.states.On("Consume", mock.Anything, "state-1").Return("user-1", nil)
		f.provider.On("ExchangeCode", mock.Anything, "code-1").Return(nil, shared.ErrNoRefreshTokenIssued)

		_, err := f.service.CompleteAuthorization(ctx, "code-1", "state-1")
		assert.ErrorIs(t, err, shared.ErrNoRefreshTokenIssued)
		assert.Empty(t, f.profiles.Calls)
		assert.Empty(t, f.sealer.Calls)
	})

	t.Run("rejected state skips the exchange", func(t *testing.T) {
		f := newConnectionFixture()
		f.states.On("Consume", mock.Anything, "forged").Return("", mail.ErrInvalidState)

		_, err := f.service.CompleteAuthorization(ctx, "code-1", "forged")
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.True(t, errors.Is(err, mail.ErrInvalidState))
		assert.Empty(t, f.provider.Calls)
	})

	t.Run("missing code is rejected", func(t *testing.T) {
		f := newConnectionFixture()
		_, err := f.service.CompleteAuthorization(ctx, "", "state-1")
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Empty(t, f.states.Calls)
	})

	t.Run("repository failure is reported", func(t *testing.T) {
		f := newConnectionFixture()
		f.states.On("Consume", mock.Anything, "state-1").Return("user-1", nil)
		f.provider.On("ExchangeCode", mock.Anything, "code-1").
			Return(&mail.Grant{RefreshToken: "refresh-1", MailboxAddress: "owner@gmail.test"}, nil)
		f.sealer.On("Seal", "refresh-1", "user-1").Return("v1.sealed", nil)
		f.profiles.On("ConnectMail", mock.Anything, "user-1", "owner@gmail.test", "v1.sealed", fixedNow).
			Return(errors.New("disk full"))

		_, err := f.service.CompleteAuthorization(ctx, "code-1", "state-1")
		assert.EqualError(t, err, "disk full")
	})
}

func TestMailConnectionService_Disconnect(t *testing.T) {
	f := newConnectionFixture()
	f.profiles.On("DisconnectMail", mock.Anything, "user-1", fixedNow).Return(nil)

	require.NoError(t, f.service.Disconnect(context.Background(), "user-1"))
	f.profiles.AssertExpectations(t)

	assert.ErrorIs(t, f.service.Disconnect(context.Background(), ""), shared.ErrUnauthorized)
}
