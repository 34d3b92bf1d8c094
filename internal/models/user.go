package models

// User represents a registered account holder. Column and table names
// keep the schema the browser client was built against.
type User struct {
	Base
	Name         string        `gorm:"column:nome;not null" json:"name"`
	Email        string        `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string        `gorm:"column:senha;not null" json:"-"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}

// TableName overrides the table name used by GORM.
func (User) TableName() string { return "usuarios" }
