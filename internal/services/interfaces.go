package services

import (
	"mime/multipart"
	"time"

	"fintrack/internal/models"
)

// UserServicer defines the contract for credential and account logic.
type UserServicer interface {
	CreateUser(name, email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// Stats holds the derived totals for one user's ledger. Never persisted;
// recomputed from committed rows on every read.
type Stats struct {
	TotalIncomeCents  int64
	TotalExpenseCents int64
	BalanceCents      int64
}

// TransactionServicer defines the contract for ledger operations.
type TransactionServicer interface {
	CreateTransaction(userID uint, txType models.TransactionType, description, category string, amountCents int64, date time.Time, attachmentRef string) (*models.Transaction, error)
	ListUserTransactions(userID uint) ([]models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
	GetStats(userID uint) (*Stats, error)
}

// AttachmentStorer defines the contract for receipt file storage.
type AttachmentStorer interface {
	Save(file *multipart.FileHeader) (string, error)
	Remove(name string)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
