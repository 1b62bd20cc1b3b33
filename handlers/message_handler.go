package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/meetbasket/services"
)

type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(ms services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: ms}
}

func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	conversations, err := h.messageService.ListConversations(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"conversations": conversations})
}

// OpenConversation godoc
// @Summary Открыть диалог с пользователем
// @Description Возвращает существующий диалог или создает новый.
// @Tags messages
// @Accept json
// @Produce json
// @Param body body userRefRequest true "Собеседник"
// @Success 200 {object} map[string]interface{} "conversation"
// @Security BearerAuth
// @Router /messages/conversations [post]
func (h *MessageHandler) OpenConversation(w http.ResponseWriter, r *http.Request) {
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

	conversation, err := h.messageService.OpenConversation(r.Context(), userID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"conversation": conversation})
}

func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	detail, err := h.messageService.GetConversation(r.Context(), conversationID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, detail)
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	message, err := h.messageService.SendMessage(r.Context(), conversationID, userID, input.Content)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"message": message})
}

func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := getIDFromURL(r, "messageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.messageService.DeleteMessage(r.Context(), messageID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.messageService.UnreadCount(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"unread": count})
}
