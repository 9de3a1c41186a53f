package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/radcert-prep/exam-service/internal/models"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// ParseCSVQuery splits a comma-separated query parameter, dropping empty parts.
func ParseCSVQuery(c *gin.Context, param string) []string {
	raw := c.Query(param)
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// ParseDifficultyQuery parses and validates a comma-separated difficulty list.
// The boolean is false when an unknown level was supplied and a 400 has
// already been written.
func ParseDifficultyQuery(c *gin.Context, param string) ([]models.DifficultyLevel, bool) {
	var levels []models.DifficultyLevel
	for _, value := range ParseCSVQuery(c, param) {
		level := models.DifficultyLevel(value)
		if !level.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid difficulty level",
				Details: value + " is not one of medium, hard, very_hard",
			})
			return nil, false
		}
		levels = append(levels, level)
	}
	return levels, true
}
