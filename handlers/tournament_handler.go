package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/meetbasket/brackets"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// ListTournaments godoc
// @Summary Список турниров
// @Tags tournaments
// @Produce json
// @Param status query string false "Фильтр по статусу" Enums(upcoming, ongoing, completed, cancelled)
// @Success 200 {object} map[string]interface{} "tournaments"
// @Router /tournaments [get]
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.TournamentStatus(raw)
		status = &s
	}

	list, err := h.tournamentService.ListTournaments(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournaments": list})
}

func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// GetBracket godoc
// @Summary Сетка турнира по зарегистрированным командам
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "ID турнира"
// @Param format query string false "Формат сетки" Enums(knockout, round_robin)
// @Success 200 {object} map[string]interface{} "bracket"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *TournamentHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	format := brackets.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = brackets.FormatKnockout
	}
	matches, err := h.tournamentService.GetBracket(r.Context(), tournamentID, format)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"format": format, "matches": matches})
}

func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.UpdateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournament(r.Context(), tournamentID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

type tournamentTeamRequest struct {
	TeamID int `json:"team_id"`
}

func (h *TournamentHandler) readTeamRequest(w http.ResponseWriter, r *http.Request) (tournamentID, teamID, userID int, ok bool) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, false
	}
	userID, ok = currentUser(w, r)
	if !ok {
		return 0, 0, 0, false
	}

	var input tournamentTeamRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, false
	}
	if input.TeamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id is required"))
		return 0, 0, 0, false
	}
	return tournamentID, input.TeamID, userID, true
}

// JoinTournament godoc
// @Summary Зарегистрировать команду на турнир
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body tournamentTeamRequest true "Команда"
// @Success 204 "Команда зарегистрирована"
// @Failure 403 {object} map[string]string "Не капитан команды"
// @Failure 409 {object} map[string]string "Турнир заполнен или закрыт"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/join [post]
func (h *TournamentHandler) JoinTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, teamID, userID, ok := h.readTeamRequest(w, r)
	if !ok {
		return
	}
	if err := h.tournamentService.JoinTournament(r.Context(), tournamentID, teamID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) LeaveTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, teamID, userID, ok := h.readTeamRequest(w, r)
	if !ok {
		return
	}
	if err := h.tournamentService.LeaveTournament(r.Context(), tournamentID, teamID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
