package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/services"
)

// TransactionHandler handles ledger and stats requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	attachments        services.AttachmentStorer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, attachments services.AttachmentStorer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		attachments:        attachments,
		auditService:       auditService,
	}
}

// TransactionResponse represents a transaction on the wire, using the
// field names the browser client was built against. Amounts are
// rendered as exact two-decimal strings.
type TransactionResponse struct {
	ID            uint                   `json:"id"`
	UserID        uint                   `json:"usuario_id"`
	Type          models.TransactionType `json:"tipo"`
	Description   string                 `json:"descricao"`
	Category      string                 `json:"categoria"`
	Amount        string                 `json:"valor"`
	Date          string                 `json:"data"`
	AttachmentRef string                 `json:"cupom_fiscal,omitempty"`
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Type:          t.Type,
		Description:   t.Description,
		Category:      t.Category,
		Amount:        money.FormatCents(t.AmountCents),
		Date:          t.Date.Format("2006-01-02"),
		AttachmentRef: t.AttachmentRef,
	}
}

// StatsResponse represents the derived totals for a user's ledger.
type StatsResponse struct {
	TotalIncome  string `json:"total_receitas"`
	TotalExpense string `json:"total_despesas"`
	Balance      string `json:"saldo"`
}

// requireOwnUser ensures the authenticated user matches the requested
// userId. The reference flow trusted the raw id; requiring a matching
// token closes that gap.
func requireOwnUser(c *gin.Context, requested uint) (uint, error) {
	userID, err := getUserID(c)
	if err != nil {
		return 0, err
	}
	if userID != requested {
		return 0, apperrors.ErrForbidden
	}
	return userID, nil
}

// CreateTransaction handles the creation of a new ledger entry from a
// multipart form, optionally storing an attached PDF receipt.
// @Summary     Create a transaction
// @Description Create a new income or expense entry, with an optional PDF receipt
// @Tags        transactions
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       userId      formData int    true  "Owning user ID (must match token)"
// @Param       type        formData string true  "receita or despesa"
// @Param       description formData string true  "Description"
// @Param       amount      formData string true  "Positive decimal amount, max 2 decimals"
// @Param       date        formData string true  "Date (YYYY-MM-DD)"
// @Param       category    formData string true  "Category"
// @Param       receipt     formData file   false "PDF receipt"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Token does not match userId"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	formUserID, err := strconv.ParseUint(c.PostForm("userId"), 10, 32)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid userId"))
		return
	}
	userID, err := requireOwnUser(c, uint(formUserID))
	if err != nil {
		respondWithError(c, err)
		return
	}

	txType := models.TransactionType(c.PostForm("type"))
	description := strings.TrimSpace(c.PostForm("description"))
	category := strings.TrimSpace(c.PostForm("category"))
	amountStr := c.PostForm("amount")
	dateStr := c.PostForm("date")

	if description == "" || category == "" || amountStr == "" || dateStr == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "description, amount, date and category are required"))
		return
	}
	if !txType.Valid() {
		respondWithError(c, apperrors.ErrInvalidTransactionType)
		return
	}

	amountCents, err := money.ParseCents(amountStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be a positive value with at most two decimal places"))
		return
	}

	date, err := parseFlexibleTime(dateStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use YYYY-MM-DD"))
		return
	}

	// Optional receipt. Stored before the insert; rolled back if the
	// insert fails so no orphan file survives a failed create.
	attachmentRef := ""
	if file, fileErr := c.FormFile("receipt"); fileErr == nil {
		attachmentRef, err = h.attachments.Save(file)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	transaction, err := h.transactionService.CreateTransaction(userID, txType, description, category, amountCents, date, attachmentRef)
	if err != nil {
		if attachmentRef != "" {
			h.attachments.Remove(attachmentRef)
		}
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"tipo": txType, "valor": amountCents, "categoria": category})

	c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetUserTransactions handles the retrieval of a user's ledger.
// @Summary     List transactions
// @Description Get all transactions for a user, newest date first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       userId path int true "User ID (must match token)"
// @Success     200 {array} TransactionResponse "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Token does not match userId"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{userId} [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	requested, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := requireOwnUser(c, requested)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.ListUserTransactions(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		response = append(response, toTransactionResponse(&transactions[i]))
	}

	c.JSON(http.StatusOK, response)
}

// GetStats handles the retrieval of a user's derived totals.
// @Summary     Get ledger stats
// @Description Get total income, total expense and balance for a user
// @Tags        stats
// @Produce     json
// @Security    BearerAuth
// @Param       userId path int true "User ID (must match token)"
// @Success     200 {object} StatsResponse "Derived totals"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Token does not match userId"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/{userId} [get]
func (h *TransactionHandler) GetStats(c *gin.Context) {
	requested, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := requireOwnUser(c, requested)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.transactionService.GetStats(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalIncome:  money.FormatCents(stats.TotalIncomeCents),
		TotalExpense: money.FormatCents(stats.TotalExpenseCents),
		Balance:      money.FormatCents(stats.BalanceCents),
	})
}

// DeleteTransaction handles the removal of a ledger entry. The delete
// is scoped to the authenticated user, so someone else's transaction id
// responds 404.
// @Summary     Delete a transaction
// @Description Delete a transaction owned by the authenticated user
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transação excluída com sucesso!"})
}
