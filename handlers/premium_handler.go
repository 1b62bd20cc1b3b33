package handlers

import (
	"net/http"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/services"
)

type PremiumHandler struct {
	premiumService services.PremiumService
}

func NewPremiumHandler(ps services.PremiumService) *PremiumHandler {
	return &PremiumHandler{premiumService: ps}
}

// CreateCheckout godoc
// @Summary Создать checkout-сессию для премиума
// @Tags premium
// @Accept json
// @Produce json
// @Param body body object true "{\"tier\": \"monthly|yearly|lifetime\"}"
// @Success 201 {object} map[string]interface{} "session"
// @Failure 400 {object} map[string]string "Неизвестный тариф"
// @Security BearerAuth
// @Router /premium/checkout [post]
func (h *PremiumHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Tier models.PremiumTier `json:"tier"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.premiumService.CreateCheckout(r.Context(), userID, input.Tier)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"session": session})
}

func (h *PremiumHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.SubscribeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, err := h.premiumService.Subscribe(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"premium": status})
}

func (h *PremiumHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.premiumService.Status(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"premium": status})
}
