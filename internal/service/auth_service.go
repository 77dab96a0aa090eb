package service

import (
	"context"
	"errors"
	"fmt"

	"whisperlink/internal/domain"
	"whisperlink/internal/security"
)

// AuthService handles signup and login.
type AuthService struct {
	users domain.UserRepository
	chats domain.ChatRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, chats domain.ChatRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		chats:  chats,
		tokens: tokens,
		hash:   hash,
	}
}

type SignupInput struct {
	Username              string
	Password              string
	DisplayName           string
	AccountKind           domain.AccountKind
	SecretPartnerUsername string
}

type LoginInput struct {
	Username string
	Password string
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// Signup creates a public account, or a secret account atomically
// paired with an existing partner: both users end up designating each
// other, and the secret room chat is created up front.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*TokenResponse, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	switch in.AccountKind {
	case domain.AccountPublic, domain.AccountSecret:
	default:
		return nil, fmt.Errorf("%w: unknown account type %q", domain.ErrInvalidInput, in.AccountKind)
	}

	if existing, err := s.users.GetByUsername(ctx, in.Username); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	} else if existing != nil {
		return nil, domain.ErrConflict
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}
	user := &domain.User{
		Username:       in.Username,
		DisplayName:    displayName,
		HashedPassword: hashed,
		AccountKind:    in.AccountKind,
		Theme:          "auto",
	}

	if in.AccountKind == domain.AccountSecret {
		if in.SecretPartnerUsername == "" {
			return nil, fmt.Errorf("%w: secret partner username required for secret accounts", domain.ErrInvalidInput)
		}
		partner, err := s.users.GetByUsername(ctx, in.SecretPartnerUsername)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: secret partner not found", domain.ErrInvalidInput)
			}
			return nil, fmt.Errorf("get partner: %w", err)
		}
		if err := s.users.CreateSecretPaired(ctx, user, partner.ID); err != nil {
			return nil, fmt.Errorf("create paired user: %w", err)
		}
		if _, err := s.chats.Ensure(ctx, user.ID, partner.ID, true); err != nil {
			return nil, fmt.Errorf("create secret room: %w", err)
		}
	} else {
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
