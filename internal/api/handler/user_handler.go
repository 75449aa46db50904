package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/delcom/travel-log/internal/api/metrics"
	"github.com/delcom/travel-log/internal/core/ports"
)

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type changePasswordRequest struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Me returns the current user.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=userPayload}
// @Failure      401  {object}  Envelope
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.users.CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, "profile loaded", userPayload{User: user})
}

// UpdateProfile changes the current user's name and email.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "New name and email"
// @Success      200   {object}  Envelope{data=userPayload}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/users/me [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), req.Name, req.Email)
	if err != nil {
		return err
	}
	return ok(c, "profile updated", userPayload{User: user})
}

// ChangePassword replaces the password and signs out every session.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/users/me/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return bindErr(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.users.ChangePassword(c.Request().Context(), req.Password, req.NewPassword); err != nil {
		return err
	}
	metrics.PasswordChangesTotal.Inc()
	return ok(c, "password changed, please log in again", nil)
}

// Logout revokes the session of the presented token.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Router       /api/users/me/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	if err := h.users.Logout(c.Request().Context()); err != nil {
		return err
	}
	return ok(c, "logged out", nil)
}
