package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// HandleGetWallet returns the caller's wallet balances. First access creates
// a zero-balance wallet, so this never 404s for a valid user.
func HandleGetWallet(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	wallet, err := newLedger().GetBalance(userCtx.UserID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load wallet")
	}

	return c.JSON(fiber.Map{
		"monthly_balance": wallet.MonthlyBalance,
		"topup_balance":   wallet.TopupBalance,
		"total_balance":   wallet.TotalBalance(),
	})
}

// HandleGetWalletTransactions returns the caller's recent wallet audit records.
func HandleGetWalletTransactions(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	transactions, err := newLedger().Transactions(userCtx.UserID, limit)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load transactions")
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
	})
}
