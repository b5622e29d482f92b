package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrEmailTaken is returned when registering with an email that already exists
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when login fails
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a user doesn't exist
	ErrUserNotFound = errors.New("user not found")
)

// User is an authenticated back-office account.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStore is the persistence contract for users.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id int) (*User, error)
}

// UserService handles registration and login.
type UserService struct {
	store           UserStore
	blacklist       *TokenBlacklist
	jwtSecret       string
	expirationHours int
}

// NewUserService creates a new user service
func NewUserService(store UserStore, blacklist *TokenBlacklist, jwtSecret string, expirationHours int) *UserService {
	return &UserService{
		store:           store,
		blacklist:       blacklist,
		jwtSecret:       jwtSecret,
		expirationHours: expirationHours,
	}
}

// Register creates a new user account and returns a signed token.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		Active:       true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := GenerateJWT(user.ID, user.Email, user.Role, s.jwtSecret, s.expirationHours)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Login verifies credentials and returns a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.Active {
		return nil, "", ErrInvalidCredentials
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateJWT(user.ID, user.Email, user.Role, s.jwtSecret, s.expirationHours)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Logout revokes a token for the remainder of its lifetime.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if s.blacklist == nil {
		return nil
	}

	claims, err := ValidateJWT(token, s.jwtSecret)
	if err != nil {
		// Already invalid, nothing to revoke.
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	return s.blacklist.Add(ctx, token, ttl)
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int) (*User, error) {
	return s.store.GetUser(ctx, id)
}
