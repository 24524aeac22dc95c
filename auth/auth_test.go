package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MySuperS3cret-Pass!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPass", hash)
	req.NoError(err)
	req.False(match)

	_, err = ComparePassword(password, "not-a-hash")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"alice42", "Alice Doe", "ComplexPass123!"}, false},
		{"Username too short", RegisterRequest{"al", "Alice Doe", "ComplexPass123!"}, true},
		{"Username not alphanumeric", RegisterRequest{"alice!", "Alice Doe", "ComplexPass123!"}, true},
		{"Missing full name", RegisterRequest{"alice42", "", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"alice42", "Alice Doe", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"alice42", "Alice Doe", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"alice42", "Alice Doe", "NoSpecialChar1234"}, true},
		{"Missing uppercase", RegisterRequest{"alice42", "Alice Doe", "nouppercase12345!"}, true},
		{"Password too long (edge case)", RegisterRequest{"alice42", "Alice Doe", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("secret", time.Hour)

	token, err := tokens.Generate("user-1", "alice")
	req.NoError(err)

	claims, err := tokens.Validate(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice", claims.Username)
}

func TestToken_Rejects_Expired_And_Tampered(t *testing.T) {
	req := require.New(t)

	expired := NewTokenManager("secret", -time.Minute)
	token, err := expired.Generate("user-1", "alice")
	req.NoError(err)
	_, err = expired.Validate(token)
	req.Error(err)

	// Signed with a different secret
	other := NewTokenManager("other-secret", time.Hour)
	token, err = other.Generate("user-1", "alice")
	req.NoError(err)
	_, err = NewTokenManager("secret", time.Hour).Validate(token)
	req.Error(err)
}

type fakeUserLookup struct {
	users map[string]domain.User
}

func (f fakeUserLookup) GetUserByID(id string) (domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, nil
}

func TestVerifier(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("secret", time.Hour)
	verifier := NewVerifier(tokens, fakeUserLookup{users: map[string]domain.User{
		"user-1": {ID: "user-1", Username: "alice"},
	}})

	// Missing credential asks for a login
	_, err := verifier.Verify(context.Background(), "")
	req.ErrorIs(err, errors.ErrAuthenticationRequired)

	// Garbage credential is a rejection
	_, err = verifier.Verify(context.Background(), "garbage")
	req.ErrorIs(err, errors.ErrAuthenticationInvalid)

	// Valid signature naming a nonexistent user is still a rejection
	ghost, err := tokens.Generate("user-ghost", "ghost")
	req.NoError(err)
	_, err = verifier.Verify(context.Background(), ghost)
	req.ErrorIs(err, errors.ErrAuthenticationInvalid)

	// Happy path resolves the identity
	token, err := tokens.Generate("user-1", "alice")
	req.NoError(err)
	user, err := verifier.Verify(context.Background(), token)
	req.NoError(err)
	req.Equal("alice", user.Username)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
