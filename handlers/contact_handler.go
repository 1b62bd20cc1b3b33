package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/meetbasket/services"
)

type ContactHandler struct {
	contactService services.ContactService
}

func NewContactHandler(cs services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: cs}
}

// Subscribe godoc
// @Summary Подписка на рассылку
// @Description Повторная подписка того же email возвращает 200.
// @Tags newsletter
// @Accept json
// @Produce json
// @Param body body object true "{\"email\": \"...\"}"
// @Success 200 {object} map[string]interface{} "Уже подписан"
// @Success 201 {object} map[string]interface{} "Подписан"
// @Failure 400 {object} map[string]string "Некорректный email"
// @Router /newsletter/subscribe [post]
func (h *ContactHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	created, err := h.contactService.Subscribe(r.Context(), input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(w, r, status, jsonResponse{"subscribed": true, "created": created})
}

func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var input services.ContactInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	message, err := h.contactService.SubmitContact(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"message": message})
}
