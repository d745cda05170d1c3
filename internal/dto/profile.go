package dto

// UpdateProfileRequest captures PUT /profile payload.
type UpdateProfileRequest struct {
	FullName        *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	AvatarURL       *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	ThemePreference *string `json:"theme_preference,omitempty" validate:"omitempty,oneof=light dark system"`
}
