package handlers

import (
	"net/http"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/services"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(rs services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: rs}
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// RateCourt godoc
// @Summary Оценить площадку (1-5)
// @Description Повторная оценка заменяет предыдущую. Возвращает новое среднее.
// @Tags ratings
// @Accept json
// @Produce json
// @Param courtID path int true "Court ID"
// @Param body body rateRequest true "Оценка"
// @Success 200 {object} map[string]interface{} "rating и rating_count"
// @Failure 400 {object} map[string]string "Оценка вне 1-5"
// @Failure 404 {object} map[string]string "Площадка не найдена"
// @Security BearerAuth
// @Router /courts/{courtID}/rate [post]
func (h *RatingHandler) RateCourt(w http.ResponseWriter, r *http.Request) {
	h.rate(w, r, models.RatingTargetCourt, "courtID")
}

func (h *RatingHandler) RateTeam(w http.ResponseWriter, r *http.Request) {
	h.rate(w, r, models.RatingTargetTeam, "teamID")
}

func (h *RatingHandler) RatePlayer(w http.ResponseWriter, r *http.Request) {
	h.rate(w, r, models.RatingTargetPlayer, "userID")
}

func (h *RatingHandler) rate(w http.ResponseWriter, r *http.Request, target models.RatingTarget, param string) {
	targetID, err := getIDFromURL(r, param)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input rateRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	agg, err := h.ratingService.Rate(r.Context(), target, targetID, userID, input.Rating)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"rating": agg.Average, "rating_count": agg.Count})
}
