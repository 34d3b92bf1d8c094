package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// transactionService handles ledger reads and writes.
type transactionService struct {
	db          *gorm.DB
	attachments AttachmentStorer
}

// NewTransactionService creates a new TransactionServicer. The
// attachment store is used to clean up receipt files after deletes.
func NewTransactionService(db *gorm.DB, attachments AttachmentStorer) TransactionServicer {
	return &transactionService{db: db, attachments: attachments}
}

// CreateTransaction validates and inserts one ledger row. Validation
// happens before any write, so a failed call leaves no partial state.
func (s *transactionService) CreateTransaction(
	userID uint,
	txType models.TransactionType,
	description, category string,
	amountCents int64,
	date time.Time,
	attachmentRef string,
) (*models.Transaction, error) {
	if !txType.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	description = strings.TrimSpace(description)
	category = strings.TrimSpace(category)
	if description == "" || category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description and category are required")
	}
	if amountCents <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:        userID,
		Type:          txType,
		Description:   description,
		Category:      category,
		AmountCents:   amountCents,
		Date:          date,
		AttachmentRef: attachmentRef,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// ListUserTransactions returns all transactions for a user, newest date
// first. Rows with equal dates come back most recently inserted first,
// so the order is stable. A user with no rows gets an empty slice.
func (s *transactionService) ListUserTransactions(userID uint) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	if err := s.db.
		Where("usuario_id = ?", userID).
		Order("data DESC").
		Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction owned by the user. The delete
// is scoped to the owner, so another user's id behaves as not found.
// Receipt file cleanup runs after the row is gone and is best effort.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND usuario_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTransactionNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := s.db.Where("id = ? AND usuario_id = ?", transactionID, userID).Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost a race with a concurrent delete.
		return apperrors.ErrTransactionNotFound
	}

	if transaction.AttachmentRef != "" && s.attachments != nil {
		s.attachments.Remove(transaction.AttachmentRef)
	}

	return nil
}

// GetStats recomputes the derived totals from the committed ledger, so
// saldo always equals receitas minus despesas.
func (s *transactionService) GetStats(userID uint) (*Stats, error) {
	sumByType := func(txType models.TransactionType) (int64, error) {
		var total int64
		err := s.db.Model(&models.Transaction{}).
			Where("usuario_id = ? AND tipo = ?", userID, txType).
			Select("COALESCE(SUM(valor), 0)").
			Scan(&total).Error
		return total, err
	}

	income, err := sumByType(models.TransactionTypeIncome)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expense, err := sumByType(models.TransactionTypeExpense)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &Stats{
		TotalIncomeCents:  income,
		TotalExpenseCents: expense,
		BalanceCents:      income - expense,
	}, nil
}
