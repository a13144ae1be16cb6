package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/ports"
)

// UserHandler serves the user directory routes. Errors are returned to the
// central error handler, which owns status mapping.
type UserHandler struct {
	registration ports.RegistrationService
	auth         ports.AuthService
	users        ports.UserService
}

func NewUserHandler(registration ports.RegistrationService, auth ports.AuthService, users ports.UserService) *UserHandler {
	return &UserHandler{registration: registration, auth: auth, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      ports.RegistrationInput  true  "User registration details"
// @Success      201   {object}  domain.PublicUser
// @Failure      400   {object}  api.errorResponse
// @Failure      500   {object}  api.errorResponse
// @Router       /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var in ports.RegistrationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.registration.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      401   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Failure      429   {object}  api.errorResponse
// @Router       /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// List returns every registered user. Admin only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.PublicUser
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.PublicUser{}
	}
	return c.JSON(http.StatusOK, users)
}
