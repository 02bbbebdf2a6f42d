package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/PulsaGit/promo_api/internal/cache"
	"github.com/PulsaGit/promo_api/internal/models"
	"github.com/PulsaGit/promo_api/internal/repository"
	"github.com/PulsaGit/promo_api/internal/utils"
)

// AuthService handles dashboard user authentication.
type AuthService struct {
	userRepo  *repository.UserRepository
	blacklist *cache.TokenBlacklist
}

// NewAuthService constructs an AuthService.
func NewAuthService(userRepo *repository.UserRepository, blacklist *cache.TokenBlacklist) *AuthService {
	return &AuthService{userRepo: userRepo, blacklist: blacklist}
}

// Login verifies credentials and returns a signed JWT.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err == sql.ErrNoRows {
		return "", nil, utils.ErrInvalidCredentials
	}
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to get user by email")
		return "", nil, err
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Login rejected, account inactive")
		return "", nil, utils.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, utils.ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record last login")
	}

	log.Info().Str("email", email).Msg("Login successful")
	return token, user, nil
}

// Logout revokes the token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.Revoke(ctx, token, ttl)
}

// Register creates a new active user account. ErrUserExists when the email
// is already taken.
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, utils.ErrUserExists
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns one user by id.
func (s *AuthService) GetUser(id int) (*models.User, error) {
	return s.userRepo.GetByID(id)
}
