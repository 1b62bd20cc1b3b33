package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dosada05/meetbasket/services"
)

type FriendHandler struct {
	friendService services.FriendService
}

func NewFriendHandler(fs services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: fs}
}

type userRefRequest struct {
	UserID int `json:"user_id"`
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"friends": friends})
}

func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.friendService.ListRequests(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, requests)
}

// SendRequest godoc
// @Summary Отправить заявку в друзья
// @Tags friends
// @Accept json
// @Produce json
// @Param body body userRefRequest true "Адресат"
// @Success 201 {object} map[string]interface{} "request"
// @Failure 409 {object} map[string]string "Заявка или дружба уже есть"
// @Security BearerAuth
// @Router /friends/requests [post]
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input userRefRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID <= 0 {
		badRequestResponse(w, r, errors.New("user_id is required"))
		return
	}

	request, err := h.friendService.SendRequest(r.Context(), userID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"request": request})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	friendship, err := h.friendService.AcceptRequest(r.Context(), requestID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"friendship": friendship})
}

func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.dropRequest(w, r, h.friendService.DeclineRequest)
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.dropRequest(w, r, h.friendService.CancelRequest)
}

func (h *FriendHandler) dropRequest(w http.ResponseWriter, r *http.Request, drop func(ctx context.Context, requestID, userID int) error) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := drop(r.Context(), requestID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	friendID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), userID, friendID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
