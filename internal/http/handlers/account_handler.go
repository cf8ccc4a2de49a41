// README: Account sign-up handler (public).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bettercommute/internal/modules/account"
)

type AccountService interface {
	SignUp(ctx context.Context, cmd account.SignUpCommand) (account.Account, error)
}

type AccountHandler struct {
	accounts AccountService
}

func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{accounts: svc}
}

type signUpReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) SignUp(c *gin.Context) {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	acc, err := h.accounts.SignUp(c.Request.Context(), account.SignUpCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, acc)
}
