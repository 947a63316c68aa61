package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/userauth-service/internal/api/dto"
	"github.com/spec-kit/userauth-service/internal/api/request"
	"github.com/spec-kit/userauth-service/internal/auth"
	"github.com/spec-kit/userauth-service/internal/service"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

// UsersHandler exposes registration, login and profile endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Register handles POST /api/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	req, err := request.Bind[dto.UserRegisterRequest](c)
	if err != nil {
		return err
	}

	user, err := h.users.RegisterUser(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /api/auth.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	req, err := request.Bind[dto.UserLoginRequest](c)
	if err != nil {
		return err
	}

	token, err := h.users.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTokenResponse(token)})
}

// Profile handles GET /api/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	user, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.New(apperrors.KindMissingToken)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
