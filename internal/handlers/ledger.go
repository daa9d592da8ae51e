package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"orusbank/internal/services/ledger"
	"orusbank/internal/utils"
	"orusbank/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// amountInput accepts an amount sent either as a JSON number or as a
// numeric string and keeps its literal text for exact decimal parsing.
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountInput(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("amount must be a number or numeric string")
		}
		*a = amountInput(n.String())
	}
	return nil
}

type accountRequest struct {
	AccountNumber string      `json:"accountNumber" validate:"required"`
	Amount        amountInput `json:"amount" validate:"required"`
}

type balanceRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
}

type transferRequest struct {
	SenderAccount   string      `json:"senderAccount" validate:"required"`
	ReceiverAccount string      `json:"receiverAccount" validate:"required"`
	Amount          amountInput `json:"amount" validate:"required"`
}

// Phone is checked here, ahead of the amount the service parses.
type topUpRequest struct {
	AccountNumber string      `json:"accountNumber" validate:"required"`
	Amount        amountInput `json:"amount" validate:"required"`
	Phone         string      `json:"phone" validate:"required,phone"`
}

type LedgerHandler struct {
	ledger ledger.Service
}

func NewLedgerHandler(ledgerService ledger.Service) *LedgerHandler {
	if ledgerService == nil {
		panic("ledger service cannot be nil")
	}
	return &LedgerHandler{ledger: ledgerService}
}

func (h *LedgerHandler) Deposit(c *fiber.Ctx) error {
	identity, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var input accountRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return utils.Error(c, err)
	}

	balance, err := h.ledger.Deposit(c.UserContext(), identity, input.AccountNumber, string(input.Amount))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{
		"message": fmt.Sprintf("Deposit successful! New Balance: %s", balance),
		"balance": balance,
	})
}

func (h *LedgerHandler) Withdraw(c *fiber.Ctx) error {
	identity, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var input accountRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return utils.Error(c, err)
	}

	balance, err := h.ledger.Withdraw(c.UserContext(), identity, input.AccountNumber, string(input.Amount))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{
		"message": "Withdrawal successful!",
		"balance": balance,
	})
}

func (h *LedgerHandler) Transfer(c *fiber.Ctx) error {
	identity, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var input transferRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.ledger.Transfer(c.UserContext(), identity, input.SenderAccount, input.ReceiverAccount, string(input.Amount))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{
		"message":    "Transfer successful!",
		"newBalance": result.SenderBalance,
	})
}

func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	identity, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var input balanceRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return utils.Error(c, err)
	}

	balance, err := h.ledger.Balance(c.UserContext(), identity, input.AccountNumber)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"balance": balance})
}

func (h *LedgerHandler) TopUp(c *fiber.Ctx) error {
	identity, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var input topUpRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.ledger.TopUp(c.UserContext(), identity, input.AccountNumber, string(input.Amount), input.Phone)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Top-up successful! %s sent to %s. New Balance: %s", result.Amount, result.Phone, result.Balance),
		"balance": result.Balance,
		"amount":  result.Amount,
		"phone":   result.Phone,
	})
}
