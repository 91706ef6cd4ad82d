package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
)

type TransferController struct {
	service service_interfaces.TransferService
}

func NewTransferController(service service_interfaces.TransferService) *TransferController {
	return &TransferController{service: service}
}

func (c *TransferController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	register(mux, authMiddleware, "POST /transfers", c.transfer)
	register(mux, authMiddleware, "GET /accounts/{accountId}/transactions", c.transactionHistory)
}

func (c *TransferController) transfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, commons.ErrorResponse[models.TransactionResponse]("missing identity"))
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error()))
		return
	}

	response, err := c.service.TransferFunds(r.Context(), actor, req)
	if err != nil {
		logError(r, err, logger.Fields{
			"fromAccountNumber": req.FromAccountNumber,
			"toAccountNumber":   req.ToAccountNumber,
		})
		writeJSON(w, statusForError(err), response)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

func (c *TransferController) transactionHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, commons.ErrorResponse[[]models.TransactionResponse]("missing identity"))
		return
	}

	accountID := strings.TrimSpace(r.PathValue("accountId"))
	response, err := c.service.GetTransactionHistory(r.Context(), actor, accountID)
	if err != nil {
		logError(r, err, logger.Fields{"accountId": accountID})
		writeJSON(w, statusForError(err), response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
