package auth

import (
	"context"

	"chat-relay/domain"
	"chat-relay/errors"
)

// UserLookup is the slice of the user store the verifier needs.
type UserLookup interface {
	GetUserByID(id string) (domain.User, error)
}

// Verifier resolves a raw session token to the user it belongs to.
// It implements contract.CredentialVerifier and is the only authentication
// path into the socket gateway: no credential means no connection.
type Verifier struct {
	tokens *TokenManager
	users  UserLookup
}

func NewVerifier(tokens *TokenManager, users UserLookup) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify validates the token and resolves the identity it names.
// A missing credential and an invalid one are distinct failures: the first
// asks the caller to log in, the second rejects a presented credential.
func (v *Verifier) Verify(_ context.Context, rawCredential string) (domain.User, error) {
	if rawCredential == "" {
		return domain.User{}, errors.ErrAuthenticationRequired
	}

	claims, err := v.tokens.Validate(rawCredential)
	if err != nil {
		return domain.User{}, errors.ErrAuthenticationInvalid
	}

	user, err := v.users.GetUserByID(claims.UserID)
	if err != nil {
		// A valid signature naming a nonexistent user is still a rejection.
		return domain.User{}, errors.ErrAuthenticationInvalid
	}
	return user, nil
}
