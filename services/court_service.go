package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/geo"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/Dosada05/meetbasket/storage"
)

const courtImagesFolder = "courts"

type CourtService interface {
	ListCourts(ctx context.Context) ([]models.Court, error)
	NearbyCourts(ctx context.Context, input NearbyInput) ([]models.NearbyCourt, error)
	GetCourt(ctx context.Context, id int) (*models.Court, error)
	CreateCourt(ctx context.Context, input CreateCourtInput, creatorID int) (*models.Court, error)
	UploadCourtImage(ctx context.Context, courtID, currentUserID int, file io.Reader, contentType string) (*models.Court, error)
	AddReview(ctx context.Context, courtID, userID int, input ReviewInput) (*models.CourtReview, error)
	Checkin(ctx context.Context, courtID, userID int) (int, error)
}

type CreateCourtInput struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Surface     *string  `json:"surface"`
	Hoops       int      `json:"hoops"`
	Indoor      bool     `json:"indoor"`
	Lighting    bool     `json:"lighting"`
	IsFree      *bool    `json:"is_free"`
	Description *string  `json:"description"`
}

type NearbyInput struct {
	Latitude  float64
	Longitude float64
	RadiusKM  float64
	Limit     int
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

type courtService struct {
	courtRepo   repositories.CourtRepository
	tx          repositories.Transactor
	cache       *cache.Cache
	invalidator *Invalidator
	uploader    storage.FileUploader
}

func NewCourtService(
	courtRepo repositories.CourtRepository,
	tx repositories.Transactor,
	c *cache.Cache,
	invalidator *Invalidator,
	uploader storage.FileUploader,
) CourtService {
	return &courtService{
		courtRepo:   courtRepo,
		tx:          tx,
		cache:       c,
		invalidator: invalidator,
		uploader:    uploader,
	}
}

func (s *courtService) ListCourts(ctx context.Context) ([]models.Court, error) {
	courts, err := cache.GetOrLoad(ctx, s.cache, courtsEntry(), s.courtRepo.List)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	for i := range courts {
		populateCourtImageURL(&courts[i], s.uploader)
	}
	return courts, nil
}

func (s *courtService) NearbyCourts(ctx context.Context, input NearbyInput) ([]models.NearbyCourt, error) {
	if !geo.ValidCoordinates(input.Latitude, input.Longitude) {
		return nil, ErrInvalidCoordinates
	}
	if input.RadiusKM < 0 || input.Limit < 0 {
		return nil, fmt.Errorf("%w: radius and limit must not be negative", ErrValidationFailed)
	}

	courts, err := s.ListCourts(ctx)
	if err != nil {
		return nil, err
	}
	ranked := geo.RankByDistance(courts, input.Latitude, input.Longitude)
	return geo.Trim(ranked, input.RadiusKM, input.Limit), nil
}

func (s *courtService) GetCourt(ctx context.Context, id int) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to get court %d: %w", id, err)
	}

	reviews, err := s.courtRepo.ListReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for court %d: %w", id, err)
	}
	court.Reviews = reviews
	populateCourtImageURL(court, s.uploader)
	return court, nil
}

func (s *courtService) CreateCourt(ctx context.Context, input CreateCourtInput, creatorID int) (*models.Court, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Address) == "" || strings.TrimSpace(input.City) == "" {
		return nil, fmt.Errorf("%w: name, address and city are required", ErrValidationFailed)
	}
	if input.Latitude == nil || input.Longitude == nil || !geo.ValidCoordinates(*input.Latitude, *input.Longitude) {
		return nil, ErrInvalidCoordinates
	}
	if input.Hoops < 0 {
		return nil, fmt.Errorf("%w: hoops must not be negative", ErrValidationFailed)
	}

	court := &models.Court{
		Name:        name,
		Address:     strings.TrimSpace(input.Address),
		City:        strings.TrimSpace(input.City),
		Latitude:    *input.Latitude,
		Longitude:   *input.Longitude,
		Surface:     trimmedOrNil(input.Surface),
		Hoops:       input.Hoops,
		Indoor:      input.Indoor,
		Lighting:    input.Lighting,
		IsFree:      true,
		Description: trimmedOrNil(input.Description),
		CreatedBy:   &creatorID,
	}
	if input.IsFree != nil {
		court.IsFree = *input.IsFree
	}

	if err := s.courtRepo.Create(ctx, court); err != nil {
		return nil, fmt.Errorf("failed to create court: %w", err)
	}
	s.invalidator.Apply(ctx, CourtCreated, creatorID)
	return court, nil
}

func (s *courtService) UploadCourtImage(ctx context.Context, courtID, currentUserID int, file io.Reader, contentType string) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to get court %d: %w", courtID, err)
	}
	if court.CreatedBy != nil && *court.CreatedBy != currentUserID {
		return nil, ErrForbiddenOperation
	}

	key, err := uploadImage(ctx, s.uploader, courtImagesFolder, courtID, contentType, file)
	if err != nil {
		return nil, err
	}

	oldKey := court.ImageKey
	if err := s.courtRepo.UpdateImageKey(ctx, courtID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, fmt.Errorf("failed to save court image: %w", err)
	}
	_ = deleteObject(ctx, s.uploader, oldKey)

	s.invalidator.Apply(ctx, CourtImageChanged, currentUserID)
	court.ImageKey = &key
	populateCourtImageURL(court, s.uploader)
	return court, nil
}

func (s *courtService) AddReview(ctx context.Context, courtID, userID int, input ReviewInput) (*models.CourtReview, error) {
	if input.Rating < models.MinRating || input.Rating > models.MaxRating {
		return nil, ErrInvalidRating
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: review content is required", ErrValidationFailed)
	}

	review := &models.CourtReview{
		CourtID: courtID,
		UserID:  userID,
		Rating:  input.Rating,
		Content: content,
	}
	if err := s.courtRepo.AddReview(ctx, review); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	s.invalidator.Apply(ctx, CourtReviewed, userID)
	return review, nil
}

func (s *courtService) Checkin(ctx context.Context, courtID, userID int) (int, error) {
	var count int
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		count, err = s.courtRepo.Checkin(ctx, exec, courtID, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return 0, ErrCourtNotFound
		}
		return 0, fmt.Errorf("failed to check in: %w", err)
	}
	s.invalidator.Apply(ctx, CourtCheckedIn, userID)
	return count, nil
}
