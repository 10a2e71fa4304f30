package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/utils/platformerrors"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "crm-server", time.Hour)
	u := &user.User{ID: "usr_1", Name: "Laura", Role: user.RoleSalesAgent}

	session, err := tokens.Issue(context.Background(), u)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	claims, err := tokens.Verify(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "usr_1", claims.Subject)
	assert.Equal(t, "Laura", claims.Name)
	assert.Equal(t, "sales_agent", claims.Role)
	assert.Equal(t, "crm-server", claims.Issuer)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", "crm-server", time.Hour)
	verifier := auth.NewTokenManager("secret-b", "crm-server", time.Hour)

	session, err := issuer.Issue(context.Background(), &user.User{ID: "usr_1"})
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), session.Token)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	issuer := auth.NewTokenManager("test-secret", "otro-servicio", time.Hour)
	verifier := auth.NewTokenManager("test-secret", "crm-server", time.Hour)

	session, err := issuer.Issue(context.Background(), &user.User{ID: "usr_1"})
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), session.Token)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "crm-server", time.Hour)

	_, err := tokens.Verify(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard header", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi"},
		{"missing scheme", "abc.def.ghi", ""},
		{"wrong scheme", "Basic abc", ""},
		{"empty header", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, auth.BearerToken(tc.header))
		})
	}
}
