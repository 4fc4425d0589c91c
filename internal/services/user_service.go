package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tecnobra-backend/internal/auth"
	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/store"

	"github.com/google/uuid"
)

const (
	UserRoleAdmin      = "admin"
	UserRoleSupervisor = "supervisor"
)

type UserService struct {
	Store      store.Store
	JWTManager *auth.JWTManager

	mu sync.Mutex
}

func NewUserService(st store.Store, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		Store:      st,
		JWTManager: jwtManager,
	}
}

func (s *UserService) load(ctx context.Context) ([]models.StoredUser, error) {
	return store.LoadCollection[models.StoredUser](ctx, s.Store, store.KeyUsers)
}

func publicUser(su models.StoredUser) *models.User {
	u := su.User
	return &u
}

// create hashes the password and appends the account. Caller holds mu.
func (s *UserService) create(ctx context.Context, req *models.SignupRequest, role string, now time.Time) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if err := auth.CheckPassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return nil, fmt.Errorf("%w: user with this email already exists", ErrDuplicate)
		}
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	// The first account administers the site
	if len(users) == 0 {
		role = UserRoleAdmin
	}

	su := models.StoredUser{
		User: models.User{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(req.Name),
			Email:     email,
			Company:   strings.TrimSpace(req.Company),
			Role:      role,
			CreatedAt: now,
		},
		PasswordHash: hashedPassword,
	}
	if err := store.SaveCollection(ctx, s.Store, store.KeyUsers, append(users, su)); err != nil {
		return nil, err
	}
	log.Printf("[Auth] Created user %s (%s)", su.Email, su.Role)
	return publicUser(su), nil
}

// Signup creates a supervisor account and returns a session token.
// The requested role is ignored; only admins assign roles.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest, now time.Time) (*models.AuthResponse, error) {
	s.mu.Lock()
	user, err := s.create(ctx, req, UserRoleSupervisor, now)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, ExpiresIn: int64(s.JWTManager.TTL().Seconds()), User: user}, nil
}

// CreateUser is the admin path and honors the requested role
func (s *UserService) CreateUser(ctx context.Context, req *models.SignupRequest, now time.Time) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = UserRoleSupervisor
	}
	if role != UserRoleAdmin && role != UserRoleSupervisor {
		return nil, fmt.Errorf("%w: role must be admin or supervisor", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx, req, role, now)
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	for _, su := range users {
		if su.Email != email {
			continue
		}
		if !auth.VerifyPassword(su.PasswordHash, req.Password) {
			break
		}
		user := publicUser(su)
		token, err := s.JWTManager.GenerateToken(user)
		if err != nil {
			return nil, err
		}
		return &models.AuthResponse{Token: token, ExpiresIn: int64(s.JWTManager.TTL().Seconds()), User: user}, nil
	}
	return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, su := range users {
		if su.ID == id {
			return publicUser(su), nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(users))
	for _, su := range users {
		out = append(out, publicUser(su))
	}
	return out, nil
}

// DeleteUser deletes a user. The last admin cannot be removed.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	admins := 0
	idx := -1
	for i, su := range users {
		if su.Role == UserRoleAdmin {
			admins++
		}
		if su.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if users[idx].Role == UserRoleAdmin && admins == 1 {
		return fmt.Errorf("%w: cannot delete the last admin", ErrInvalidTransition)
	}
	users = append(users[:idx], users[idx+1:]...)
	return store.SaveCollection(ctx, s.Store, store.KeyUsers, users)
}
