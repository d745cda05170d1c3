package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
	appErrors "github.com/noah-isme/goalflow-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

// ProfileService reads and updates user profiles.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger}
}

// Get returns the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, "profile not found", "failed to load profile")
	}
	return profile, nil
}

// Update changes the name, avatar or theme of the user's profile.
func (s *ProfileService) Update(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*models.Profile, error) {
	if req.ThemePreference != nil {
		theme := strings.ToLower(strings.TrimSpace(*req.ThemePreference))
		req.ThemePreference = &theme
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		profile.FullName = normalizeOptional(req.FullName)
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = normalizeOptional(req.AvatarURL)
	}
	if req.ThemePreference != nil {
		theme := models.ThemePreference(*req.ThemePreference)
		if !theme.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "theme_preference must be light, dark or system")
		}
		profile.ThemePreference = theme
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, mapNotFound(err, "profile not found", "failed to update profile")
	}
	return profile, nil
}
