package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pharmacy-service/internal/model"
	"pharmacy-service/pkg/database"
	"pharmacy-service/pkg/logger"
)

// ListUsers returns all user accounts. Admin only.
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	var users []model.User
	if result := database.GetDB().Order("name ASC").Find(&users); result.Error != nil {
		log.Error("Failed to list users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUserRole changes a user's role. Admin only.
func UpdateUserRole(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin, pharmacist or staff"})
	}

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	user.Role = role
	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update user role", zap.Uint("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}

	log.Info("User role updated",
		zap.Uint("user_id", id),
		zap.String("role", string(role)))
	return c.JSON(http.StatusOK, user)
}
