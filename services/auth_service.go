package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(username, fullName, password string) (domain.User, Token, error)
	Login(username, password string) (domain.User, Token, error)
}

type Token string

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(username, fullName, password string) (domain.User, Token, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		FullName: fullName,
		Password: password,
	}

	// 1. Validate business rules (username format, password complexity)
	// before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id.
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash.
	user, err := s.userRepository.CreateUser(username, fullName, hashedPassword)
	if err != nil {
		return domain.User{}, "", err // Propagates ErrUserAlreadyExists if the name is taken
	}

	// 4. Issue the initial session token.
	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}
	return user, Token(token), nil
}

func (s *AuthService) Login(username, password string) (domain.User, Token, error) {
	// Generic error on every failure path to prevent user enumeration.
	record, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, record.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(record.ID, record.Username)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	user := domain.User{
		ID:        record.ID,
		Username:  record.Username,
		FullName:  record.FullName,
		Avatar:    record.Avatar,
		CreatedAt: record.CreatedAt,
	}
	return user, Token(token), nil
}
