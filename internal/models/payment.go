package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// PaymentMethodCash marks an over-the-counter payment.
	PaymentMethodCash = "cash"
	// PaymentMethodTransfer marks a bank transfer.
	PaymentMethodTransfer = "transfer"
	// PaymentMethodPOS marks a card payment at the bursary terminal.
	PaymentMethodPOS = "pos"
	// PaymentMethodCheque marks a cheque lodgement.
	PaymentMethodCheque = "cheque"
)

// PaymentLineItem attributes part of a payment to a named fee head.
type PaymentLineItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Payment records money received from a student for a session and term.
type Payment struct {
	ID         uint                                 `gorm:"primaryKey" json:"id"`
	StudentID  uint                                 `gorm:"not null;index" json:"student_id"`
	Amount     float64                              `gorm:"type:numeric;not null" json:"amount"`
	Method     string                               `gorm:"size:16;not null" json:"method"`
	Date       string                               `gorm:"size:10;not null" json:"date"`
	Session    string                               `gorm:"size:32;not null;index:idx_payment_scope" json:"session"`
	Term       string                               `gorm:"size:32;not null;index:idx_payment_scope" json:"term"`
	Reference  string                               `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	LineItems  datatypes.JSONSlice[PaymentLineItem] `gorm:"type:json" json:"line_items"`
	RecordedBy uint                                 `json:"recorded_by"`
	CreatedAt  time.Time                            `json:"created_at"`
}

// InScope reports whether the payment was made for the session and term.
func (p Payment) InScope(session, term string) bool {
	return p.Session == session && p.Term == term
}
