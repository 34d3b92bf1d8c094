package models

import "time"

// TransactionType tags a ledger row as money in or money out. The
// values are the Portuguese wire strings the client sends.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "receita"
	TransactionTypeExpense TransactionType = "despesa"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction represents one ledger entry. Amounts are stored as
// integer cents; the sign is never stored, direction comes from Type.
type Transaction struct {
	Base
	UserID        uint            `gorm:"column:usuario_id;not null;index" json:"usuario_id"`
	Type          TransactionType `gorm:"column:tipo;not null" json:"tipo"`
	Description   string          `gorm:"column:descricao;not null" json:"descricao"`
	Category      string          `gorm:"column:categoria;not null" json:"categoria"`
	AmountCents   int64           `gorm:"column:valor;type:bigint;not null" json:"-"`
	Date          time.Time       `gorm:"column:data;not null" json:"data"`
	AttachmentRef string          `gorm:"column:cupom_fiscal" json:"cupom_fiscal,omitempty"`
}

// TableName overrides the table name used by GORM.
func (Transaction) TableName() string { return "transacoes" }
