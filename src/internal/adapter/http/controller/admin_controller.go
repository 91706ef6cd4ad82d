package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
)

// AdminController exposes the reporting surface. Role enforcement lives in
// the services; these handlers only adapt.
type AdminController struct {
	transferService service_interfaces.TransferService
	fraudService    service_interfaces.FraudService
	auditService    service_interfaces.AuditService
}

func NewAdminController(
	transferService service_interfaces.TransferService,
	fraudService service_interfaces.FraudService,
	auditService service_interfaces.AuditService,
) *AdminController {
	return &AdminController{
		transferService: transferService,
		fraudService:    fraudService,
		auditService:    auditService,
	}
}

func (c *AdminController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	register(mux, authMiddleware, "GET /admin/transactions", c.allTransactions)
	register(mux, authMiddleware, "GET /admin/fraud-events", c.fraudEvents)
	register(mux, authMiddleware, "GET /admin/audit-logs", c.auditLogs)
}

// allTransactions lists the full ledger, or a slice of it when the optional
// from/to RFC3339 query parameters bound the window.
func (c *AdminController) allTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, commons.ErrorResponse[[]models.TransactionResponse]("missing identity"))
		return
	}

	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")

	var response commons.Response[[]models.TransactionResponse]
	var err error

	if fromParam == "" && toParam == "" {
		response, err = c.transferService.GetAllTransactions(r.Context(), actor)
	} else {
		start := time.Time{}
		end := time.Now().UTC()
		if fromParam != "" {
			if start, err = time.Parse(time.RFC3339, fromParam); err != nil {
				writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[[]models.TransactionResponse]("invalid from parameter", err.Error()))
				return
			}
		}
		if toParam != "" {
			if end, err = time.Parse(time.RFC3339, toParam); err != nil {
				writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[[]models.TransactionResponse]("invalid to parameter", err.Error()))
				return
			}
		}
		response, err = c.transferService.GetTransactionsBetween(r.Context(), actor, start, end)
	}
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, statusForError(err), response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (c *AdminController) fraudEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, commons.ErrorResponse[[]models.FraudEventResponse]("missing identity"))
		return
	}

	response, err := c.fraudService.ListFraudEvents(r.Context(), actor)
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, statusForError(err), response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (c *AdminController) auditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, commons.ErrorResponse[[]models.AuditLogResponse]("missing identity"))
		return
	}

	response, err := c.auditService.ListAuditLogs(r.Context(), actor)
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, statusForError(err), response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
