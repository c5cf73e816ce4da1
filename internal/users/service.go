package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/auth"
	"github.com/peacetifal/peacetifal-backend/pkg/config"
	"github.com/peacetifal/peacetifal-backend/pkg/db"
	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	"github.com/peacetifal/peacetifal-backend/pkg/enums"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/security"
)

// Service exposes operator account management and login.
type Service interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*UserDTO, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// CreateUserInput holds the validated payload to create an operator account.
type CreateUserInput struct {
	Email    string
	Password string
	Role     enums.UserRole
}

// UserDTO is the account payload returned to clients. Password hashes never
// leave this package.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// LoginResult carries the minted access token plus the account it belongs to.
type LoginResult struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

func newUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

type service struct {
	repo        *Repository
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs a user service instance.
func NewService(repo *Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		repo:        repo,
		jwtConfig:   jwtCfg,
		passwordCfg: passwordCfg,
		now:         time.Now,
	}, nil
}

func (s *service) CreateUser(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}

	dto := newUserDTO(created)
	return &dto, nil
}

// Login verifies credentials and mints an access token. Unknown accounts and
// wrong passwords return the same unauthorized error.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := auth.MintAccessToken(s.jwtConfig, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}

	return &LoginResult{Token: token, User: newUserDTO(user)}, nil
}
