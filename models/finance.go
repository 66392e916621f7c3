package models

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind distinguishes income from expense entries
type EntryKind string

const (
	EntryKindIncome  EntryKind = "income"
	EntryKindExpense EntryKind = "expense"
)

// FinanceEntry is a single income or expense line
type FinanceEntry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Kind        EntryKind `json:"kind" db:"kind"`
	Category    string    `json:"category" db:"category"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	OccurredOn  time.Time `json:"occurred_on" db:"occurred_on"`
	Note        string    `json:"note" db:"note"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the FinanceEntry model
func (FinanceEntry) TableName() string {
	return "finance_entries"
}

// NewFinanceEntry creates a new FinanceEntry instance
func NewFinanceEntry(ownerID uuid.UUID, kind EntryKind, category string, amountCents int64, occurredOn time.Time) *FinanceEntry {
	return &FinanceEntry{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Kind:        kind,
		Category:    category,
		AmountCents: amountCents,
		OccurredOn:  occurredOn,
		CreatedAt:   time.Now(),
	}
}

// Debt tracks money owed to a creditor
type Debt struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OwnerID        uuid.UUID  `json:"owner_id" db:"owner_id"`
	Creditor       string     `json:"creditor" db:"creditor"`
	PrincipalCents int64      `json:"principal_cents" db:"principal_cents"`
	BalanceCents   int64      `json:"balance_cents" db:"balance_cents"`
	DueDate        *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Debt model
func (Debt) TableName() string {
	return "debts"
}

// NewDebt creates a new Debt with the balance equal to the principal
func NewDebt(ownerID uuid.UUID, creditor string, principalCents int64) *Debt {
	now := time.Now()
	return &Debt{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Creditor:       creditor,
		PrincipalCents: principalCents,
		BalanceCents:   principalCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsSettled returns true once nothing is owed
func (d *Debt) IsSettled() bool {
	return d.BalanceCents <= 0
}
