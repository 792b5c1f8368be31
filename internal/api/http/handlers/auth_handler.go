package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthHandler serves agent login.
type AuthHandler struct {
	service *service.AuthService
	limiter *auth.LoginLimiter
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, limiter *auth.LoginLimiter) *AuthHandler {
	return &AuthHandler{service: authService, limiter: limiter}
}

// Login POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if !h.limiter.Allow(c.UserContext(), c.IP()) {
		return apperrors.NewDomainError("RATE_LIMITED", "too many login attempts", fiber.StatusTooManyRequests, nil)
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	token, _, err := h.service.Login(c.UserContext(), email, req.Password)
	if err != nil {
		return err
	}
	user, err := h.service.FindUserByEmail(c.UserContext(), email)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token: token,
		User: dto.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Role:  string(user.Role),
		},
	}})
}
