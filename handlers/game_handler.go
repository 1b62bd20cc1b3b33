package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/meetbasket/middleware"
	"github.com/Dosada05/meetbasket/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gs services.GameService) *GameHandler {
	return &GameHandler{gameService: gs}
}

// ListGames godoc
// @Summary Список игр
// @Description tab=upcoming|past|organized|joined. organized и joined требуют токен.
// @Tags games
// @Produce json
// @Param tab query string false "Вкладка" Enums(upcoming, past, organized, joined)
// @Param court_id query int false "Фильтр по площадке"
// @Success 200 {object} map[string]interface{} "games"
// @Failure 400 {object} map[string]string "Неизвестная вкладка"
// @Failure 401 {object} map[string]string "Вкладка требует авторизации"
// @Router /games [get]
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	courtID, err := optionalIntQuery(r, "court_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.gameService.ListGames(r.Context(), services.GameListQuery{
		Tab:           services.GameTab(r.URL.Query().Get("tab")),
		CourtID:       courtID,
		CurrentUserID: middleware.OptionalUserID(r.Context()),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"games": games})
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"game": game})
}

func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"game": game})
}

type joinGameRequest struct {
	TeamID *int `json:"team_id"`
}

// JoinGame godoc
// @Summary Присоединиться к игре
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param body body joinGameRequest false "Команда (для игр команда на команду)"
// @Success 201 {object} map[string]interface{} "participant"
// @Failure 409 {object} map[string]string "Уже в игре или игра заполнена"
// @Security BearerAuth
// @Router /games/{gameID}/join [post]
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	// тело необязательно; при chunked ContentLength == -1, поэтому читаем всегда
	var input joinGameRequest
	if r.Body != nil && r.Body != http.NoBody {
		if err := readJSON(w, r, &input); err != nil && !errors.Is(err, errEmptyBody) {
			badRequestResponse(w, r, err)
			return
		}
	}

	participant, err := h.gameService.JoinGame(r.Context(), gameID, userID, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"participant": participant})
}

func (h *GameHandler) LeaveGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.gameService.LeaveGame(r.Context(), gameID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), gameID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveResult godoc
// @Summary Сохранить результат игры
// @Description Только организатор. result: "Team A gewinnt", "Team B gewinnt" или "Unentschieden".
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param body body services.GameResultInput true "Результат, счет и статистика"
// @Success 200 {object} map[string]interface{} "game"
// @Failure 400 {object} map[string]string "Некорректный результат"
// @Failure 403 {object} map[string]string "Не организатор"
// @Security BearerAuth
// @Router /games/{gameID}/result [put]
func (h *GameHandler) SaveResult(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.GameResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.SaveResult(r.Context(), gameID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"game": game})
}
