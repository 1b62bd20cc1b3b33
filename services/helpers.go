package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/storage"
	"github.com/google/uuid"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// trimmedOrNil turns blank optional strings into NULLs.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// GetExtensionFromContentType maps an image MIME type to a file extension.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnsupportedImageType, contentType)
}

// uploadImage stores an image under <folder>/<ownerID>/<uuid><ext> and returns the key.
func uploadImage(ctx context.Context, uploader storage.FileUploader, folder string, ownerID int, contentType string, r io.Reader) (string, error) {
	if uploader == nil {
		return "", ErrUploadsDisabled
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%d/%s%s", folder, ownerID, uuid.NewString(), ext)
	if _, err := uploader.Upload(ctx, key, contentType, r); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

// deleteObject removes a replaced object; a failure only leaves an orphan behind.
func deleteObject(ctx context.Context, uploader storage.FileUploader, key *string) error {
	if uploader == nil || key == nil || *key == "" {
		return nil
	}
	return uploader.Delete(ctx, *key)
}

func publicURL(uploader storage.FileUploader, key *string) *string {
	if uploader == nil || key == nil || *key == "" {
		return nil
	}
	url := uploader.GetPublicURL(*key)
	if url == "" {
		return nil
	}
	return &url
}

func populateUserDetailsFunc(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	user.AvatarURL = publicURL(uploader, user.AvatarKey)
}

// populatePublicUser strips private fields for users shown to others.
func populatePublicUser(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	populateUserDetailsFunc(user, uploader)
	user.Email = ""
}

func populateCourtImageURL(court *models.Court, uploader storage.FileUploader) {
	if court != nil {
		court.ImageURL = publicURL(uploader, court.ImageKey)
	}
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil {
		return
	}
	team.LogoURL = publicURL(uploader, team.LogoKey)
	if team.Captain != nil {
		populatePublicUser(team.Captain, uploader)
	}
	for i := range team.Members {
		populatePublicUser(&team.Members[i], uploader)
	}
}

// isAny reports whether err matches one of targets.
func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
