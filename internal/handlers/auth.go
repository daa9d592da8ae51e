package handlers

import (
	"orusbank/internal/services/auth"
	"orusbank/internal/utils"
	"orusbank/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup registers an account and returns its number.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var input signupRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return utils.Error(c, err)
	}

	account, err := h.authService.Signup(c.UserContext(), input.Username, input.Email, input.Password)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":       "Signup successful",
		"accountNumber": account.AccountNumber,
	})
}

// Login checks credentials and issues a bearer token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input loginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return utils.Error(c, err)
	}

	account, token, err := h.authService.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":       "Login successful",
		"token":         token,
		"accountNumber": account.AccountNumber,
		"balance":       account.Balance,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Error(c, err)
	}
	if err := h.authService.Logout(c.UserContext(), identity); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "Logout successful"})
}
