package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/reconciler"
	"ledgerflow/internal/scheduler"
	"ledgerflow/internal/store"
	"ledgerflow/pkg/logger"
	"ledgerflow/pkg/response"
)

// AccountHandler exposes the read-only account/transaction views and the
// single access-code write endpoint. Adapted from
// the original transaction handler's query logic: its
// GetTransaction/GetTransactionsByDateRange query logic survives as the
// per-account transaction listing, while CreateTransaction/
// BulkCreateTransactions are dropped (see DESIGN.md) since this system
// never accepts transactions directly over HTTP.
type AccountHandler struct {
	registry *config.Registry
	store    store.Store
	mailbox  *scheduler.OTPMailbox
}

// NewAccountHandler wires the configured account registry, the
// transaction store, and the access-code mailbox the scheduler's SMS-OTP
// wait polls.
func NewAccountHandler(registry *config.Registry, s store.Store, mailbox *scheduler.OTPMailbox) *AccountHandler {
	return &AccountHandler{registry: registry, store: s, mailbox: mailbox}
}

type accountView struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Type   string             `json:"type"`
	BankID string             `json:"bank_id,omitempty"`
	Cards  []config.CardEntry `json:"cards,omitempty"`
}

// ListAccounts godoc
// @Summary List configured accounts
// @Description List every account named in the top-level configuration
// @Tags accounts
// @Produce json
// @Success 200 {object} response.Response
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	views := make([]accountView, 0, len(h.registry.Accounts))
	for _, a := range h.registry.Accounts {
		views = append(views, accountView{
			ID:     a.ID,
			Name:   a.Name,
			Type:   a.Type,
			BankID: a.BankID,
			Cards:  h.registry.CardsForAccount(a.ID),
		})
	}
	response.Success(c, http.StatusOK, "accounts retrieved successfully", views)
}

// GetAccount godoc
// @Summary Get one configured account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id := c.Param("id")
	account, ok := h.registry.AccountByID(id)
	if !ok {
		response.NotFound(c, "account not found")
		return
	}
	response.Success(c, http.StatusOK, "account retrieved successfully", accountView{
		ID:     account.ID,
		Name:   account.Name,
		Type:   account.Type,
		BankID: account.BankID,
		Cards:  h.registry.CardsForAccount(account.ID),
	})
}

// GetAccountTransactions godoc
// @Summary List one account's stored transactions
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param start_date query string false "Start date (2006-01-02)"
// @Param end_date query string false "End date (2006-01-02)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /accounts/{id}/transactions [get]
func (h *AccountHandler) GetAccountTransactions(c *gin.Context) {
	id := c.Param("id")
	account, ok := h.registry.AccountByID(id)
	if !ok {
		response.NotFound(c, "account not found")
		return
	}

	log := store.LogKey{Kind: account.KindOf(), Identifier: account.ID}
	transactions, err := h.store.Find(c.Request.Context(), log)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("account", id).Error("failed to load transactions")
		response.InternalError(c, "failed to load transactions", err.Error())
		return
	}

	if start := c.Query("start_date"); start != "" {
		transactions = filterFrom(transactions, start)
	}
	if end := c.Query("end_date"); end != "" {
		transactions = filterUntil(transactions, end)
	}

	response.Success(c, http.StatusOK, "transactions retrieved successfully", transactions)
}

type transactionSummary struct {
	Count    int        `json:"count"`
	LastDate *time.Time `json:"last_date,omitempty"`
}

// GetAccountTransactionSummary godoc
// @Summary Count one account's stored transactions without loading them
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /accounts/{id}/transactions/summary [get]
func (h *AccountHandler) GetAccountTransactionSummary(c *gin.Context) {
	id := c.Param("id")
	account, ok := h.registry.AccountByID(id)
	if !ok {
		response.NotFound(c, "account not found")
		return
	}

	log := store.LogKey{Kind: account.KindOf(), Identifier: account.ID}
	ctx := c.Request.Context()

	count, err := h.store.Count(ctx, log)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("account", id).Error("failed to count transactions")
		response.InternalError(c, "failed to count transactions", err.Error())
		return
	}

	summary := transactionSummary{Count: count}
	if last, ok, err := h.store.LastDate(ctx, log); err != nil {
		logger.GetLogger().WithError(err).WithField("account", id).Error("failed to read last transaction date")
		response.InternalError(c, "failed to read last transaction date", err.Error())
		return
	} else if ok {
		summary.LastDate = &last
	}

	response.Success(c, http.StatusOK, "summary retrieved successfully", summary)
}

// LookupTransaction godoc
// @Summary Find the single stored transaction matching a fingerprint
// @Description Wraps the store's find_one operation: returns the one non-valid_duplicate transaction whose fingerprint matches, 404 if none do
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param fingerprint query string true "Fingerprint to match"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /accounts/{id}/transactions/lookup [get]
func (h *AccountHandler) LookupTransaction(c *gin.Context) {
	id := c.Param("id")
	account, ok := h.registry.AccountByID(id)
	if !ok {
		response.NotFound(c, "account not found")
		return
	}

	fingerprint := c.Query("fingerprint")
	if fingerprint == "" {
		response.BadRequest(c, "Validation failed", "fingerprint query parameter is required")
		return
	}

	log := store.LogKey{Kind: account.KindOf(), Identifier: account.ID}
	fp := reconciler.FingerprintFor(log.Kind)

	txn, found, err := h.store.FindOne(c.Request.Context(), log, fingerprint, fp)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("account", id).Error("failed to look up transaction")
		response.InternalError(c, "failed to look up transaction", err.Error())
		return
	}
	if !found {
		response.NotFound(c, "no transaction matches that fingerprint")
		return
	}

	response.Success(c, http.StatusOK, "transaction retrieved successfully", txn)
}

func filterFrom(transactions []domain.Transaction, startDate string) []domain.Transaction {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return transactions
	}
	out := transactions[:0:0]
	for _, t := range transactions {
		if !t.TransactionDate.Before(start) {
			out = append(out, t)
		}
	}
	return out
}

func filterUntil(transactions []domain.Transaction, endDate string) []domain.Transaction {
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return transactions
	}
	end = end.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	out := transactions[:0:0]
	for _, t := range transactions {
		if !t.TransactionDate.After(end) {
			out = append(out, t)
		}
	}
	return out
}

type accessCodeRequest struct {
	Code string `json:"code" binding:"required"`
	Date string `json:"date" binding:"required"`
}

// PutAccessCode godoc
// @Summary Deposit an out-of-band SMS access code
// @Description Accepts {code, date} and writes the code into the access-code mailbox the scheduler's SMS-OTP wait polls; the date is not stored
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body accessCodeRequest true "Access code"
// @Success 202 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /accounts/{id}/access_code [put]
func (h *AccountHandler) PutAccessCode(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.registry.AccountByID(id); !ok {
		response.NotFound(c, "account not found")
		return
	}

	var req accessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Validation failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.mailbox.Deposit(ctx, id, req.Code); err != nil {
		logger.GetLogger().WithError(err).WithField("account", id).Error("failed to deposit access code")
		response.InternalError(c, "failed to deposit access code", err.Error())
		return
	}

	response.Success(c, http.StatusAccepted, "access code accepted", nil)
}
