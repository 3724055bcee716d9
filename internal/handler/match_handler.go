package handler

import (
	"net/http"

	"edumatch.id/studybuddy/internal/dto"
	"edumatch.id/studybuddy/internal/service"
	"edumatch.id/studybuddy/pkg/response"
	"edumatch.id/studybuddy/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchService service.MatchService
}

func NewMatchHandler(matchService service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// GetPotentialMatches lists compatible, not-yet-decided candidates.
func (h *MatchHandler) GetPotentialMatches(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	matches, err := h.matchService.PotentialMatches(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

// ActOnMatch records the caller's accept/reject decision toward :user_id.
func (h *MatchHandler) ActOnMatch(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var input dto.MatchActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.matchService.Act(c.Request.Context(), userID, targetID, input.Action)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetMatches lists confirmed (mutual) matches.
func (h *MatchHandler) GetMatches(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	matches, err := h.matchService.ConfirmedMatches(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

// GetMatchRequests lists proposals awaiting the caller's decision.
func (h *MatchHandler) GetMatchRequests(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	requests, err := h.matchService.IncomingRequests(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}
