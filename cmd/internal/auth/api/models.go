package authapi

import (
	"time"

	"playtube/cmd/account"
	"playtube/cmd/internal/auth/session"
)

type registerRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	Password      string `json:"password"`
	AvatarKey     string `json:"avatarKey"`
	CoverImageKey string `json:"coverImageKey"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName      *string `json:"fullName"`
	AvatarKey     *string `json:"avatarKey"`
	CoverImageKey *string `json:"coverImageKey"`
}

type uploadURLRequest struct {
	Kind string `json:"kind"`
}

// Plaintext hash and refresh-token fields never appear here; sanitization
// happens in the session layer and this struct simply has no slots for them.
type accountResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarKey     string    `json:"avatarKey,omitempty"`
	CoverImageKey string    `json:"coverImageKey,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type tokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type loginResponse struct {
	User accountResponse `json:"user"`
	tokenPair
}

type uploadURLResponse struct {
	Key              string `json:"key"`
	UploadURL        string `json:"uploadUrl"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func toAccountResponse(acc account.Account) accountResponse {
	return accountResponse{
		ID:            acc.ID,
		Username:      acc.Username,
		Email:         acc.Email,
		FullName:      acc.FullName,
		AvatarKey:     acc.AvatarKey,
		CoverImageKey: acc.CoverImageKey,
		CreatedAt:     acc.CreatedAt,
		UpdatedAt:     acc.UpdatedAt,
	}
}

func toTokenPair(issued session.Issued) tokenPair {
	return tokenPair{
		AccessToken:      issued.AccessToken,
		AccessExpiresAt:  issued.AccessExpiresAt,
		RefreshToken:     issued.RefreshToken,
		RefreshExpiresAt: issued.RefreshExpiresAt,
	}
}
