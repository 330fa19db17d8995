package service

import (
	"context"
	"errors"
	"strings"

	"socialpost/internal/auth"
	"socialpost/internal/models"
	"socialpost/internal/repository"
	"socialpost/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

const invalidCredentials = "Invalid email or password"

// AuthService registers accounts and issues and revokes bearer tokens.
type AuthService struct {
	users       repository.UserRepository
	issuer      *auth.TokenIssuer
	revocations *auth.Revocations
	hashCost    int
}

func NewAuthService(users repository.UserRepository, issuer *auth.TokenIssuer, revocations *auth.Revocations) *AuthService {
	return &AuthService{
		users:       users,
		issuer:      issuer,
		revocations: revocations,
		hashCost:    bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if name == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("Name, email, and password are required")
	}
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	for _, err := range []error{
		validation.ValidateName(name),
		validation.ValidateUsername(username),
		validation.ValidateEmail(email),
		validation.ValidatePassword(in.Password),
	} {
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}
	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:       name,
		Email:      email,
		Username:   username,
		Password:   string(hash),
		ProfilePic: models.DefaultProfilePic(name),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.NewUnauthorizedError(invalidCredentials)
		}
		return nil, models.NewInternalError(err)
	}
	return s.issue(user)
}

// Logout revokes the token described by claims until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return models.NewUnauthorizedError("Missing credentials")
	}
	if err := s.revocations.Revoke(ctx, claims); err != nil {
		return models.NewDependencyError(err)
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token.Token, ExpiresAt: token.ExpiresAt.Unix(), User: user}, nil
}
