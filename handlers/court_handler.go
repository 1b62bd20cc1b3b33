package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/meetbasket/services"
)

type CourtHandler struct {
	courtService services.CourtService
}

func NewCourtHandler(cs services.CourtService) *CourtHandler {
	return &CourtHandler{courtService: cs}
}

// ListCourts godoc
// @Summary Список площадок
// @Tags courts
// @Produce json
// @Success 200 {object} map[string]interface{} "courts"
// @Router /courts [get]
func (h *CourtHandler) ListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.courtService.ListCourts(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"courts": courts})
}

// NearbyCourts godoc
// @Summary Площадки рядом, по расстоянию
// @Tags courts
// @Produce json
// @Param lat query number true "Широта"
// @Param lng query number true "Долгота"
// @Param radius query number false "Радиус в км"
// @Param limit query int false "Максимум результатов"
// @Success 200 {object} map[string]interface{} "courts с distance_km"
// @Failure 400 {object} map[string]string "Некорректные координаты"
// @Router /courts/nearby [get]
func (h *CourtHandler) NearbyCourts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		badRequestResponse(w, r, errors.New("lat query parameter is required"))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		badRequestResponse(w, r, errors.New("lng query parameter is required"))
		return
	}

	input := services.NearbyInput{Latitude: lat, Longitude: lng}
	if raw := q.Get("radius"); raw != "" {
		if input.RadiusKM, err = strconv.ParseFloat(raw, 64); err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid radius query parameter: %q", raw))
			return
		}
	}
	limit, err := optionalIntQuery(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if limit != nil {
		input.Limit = *limit
	}

	courts, err := h.courtService.NearbyCourts(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"courts": courts})
}

func (h *CourtHandler) GetCourt(w http.ResponseWriter, r *http.Request) {
	courtID, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court, err := h.courtService.GetCourt(r.Context(), courtID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"court": court})
}

// CreateCourt godoc
// @Summary Добавить площадку
// @Tags courts
// @Accept json
// @Produce json
// @Param body body services.CreateCourtInput true "Площадка"
// @Success 201 {object} map[string]interface{} "court"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /courts [post]
func (h *CourtHandler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court, err := h.courtService.CreateCourt(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"court": court})
}

func (h *CourtHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	courtID, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	file, contentType, err := readImage(r, "image")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	court, err := h.courtService.UploadCourtImage(r.Context(), courtID, userID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"court": court})
}

func (h *CourtHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	courtID, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.ReviewInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	review, err := h.courtService.AddReview(r.Context(), courtID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"review": review})
}

func (h *CourtHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	courtID, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.courtService.Checkin(r.Context(), courtID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"checkins": count})
}
