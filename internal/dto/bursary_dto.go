package dto

import (
	"time"

	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// FeeHeadCreateRequest captures a billable charge. Session and term default
// to the current scope; a nil ClassID bills every class.
type FeeHeadCreateRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=128"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	ClassID *uint   `json:"class_id" validate:"omitempty,gt=0"`
	Session string  `json:"session" validate:"omitempty,max=32"`
	Term    string  `json:"term" validate:"omitempty,max=32"`
}

// PaymentLineItemRequest attributes part of a payment to a fee head name.
type PaymentLineItemRequest struct {
	Name   string  `json:"name" validate:"required,max=128"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

// PaymentCreateRequest records money received from a student.
type PaymentCreateRequest struct {
	StudentID uint                     `json:"student_id" validate:"required"`
	Amount    float64                  `json:"amount" validate:"required,gt=0"`
	Method    string                   `json:"method" validate:"required,oneof=cash transfer pos cheque"`
	Date      string                   `json:"date" validate:"required,datetime=2006-01-02"`
	Session   string                   `json:"session" validate:"omitempty,max=32"`
	Term      string                   `json:"term" validate:"omitempty,max=32"`
	LineItems []PaymentLineItemRequest `json:"line_items" validate:"omitempty,dive"`
}

// PaymentListRequest defines payment filters.
type PaymentListRequest struct {
	StudentID *uint
	Scope     ScopeQuery
}

// FeeHeadResponse serializes a fee head.
type FeeHeadResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	ClassID   *uint     `json:"class_id"`
	Session   string    `json:"session"`
	Term      string    `json:"term"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentResponse serializes a payment receipt.
type PaymentResponse struct {
	ID         uint                     `json:"id"`
	StudentID  uint                     `json:"student_id"`
	Amount     float64                  `json:"amount"`
	Method     string                   `json:"method"`
	Date       string                   `json:"date"`
	Session    string                   `json:"session"`
	Term       string                   `json:"term"`
	Reference  string                   `json:"reference"`
	LineItems  []models.PaymentLineItem `json:"line_items"`
	RecordedBy uint                     `json:"recorded_by"`
	CreatedAt  time.Time                `json:"created_at"`
}

// StudentBalanceResponse is a student's bursary statement for a term.
type StudentBalanceResponse struct {
	Student  StudentSummary    `json:"student"`
	ClassID  uint              `json:"class_id"`
	Session  string            `json:"session"`
	Term     string            `json:"term"`
	Fees     []FeeHeadResponse `json:"fees"`
	Payments []PaymentResponse `json:"payments"`
	engine.Ledger
}

// ClassBalanceRow is one student's line in a class bursary view.
type ClassBalanceRow struct {
	Student StudentSummary `json:"student"`
	engine.Ledger
}

// ClassBalancesResponse is the bursary view for a whole class.
type ClassBalancesResponse struct {
	Class    ClassSummary      `json:"class"`
	Session  string            `json:"session"`
	Term     string            `json:"term"`
	Students []ClassBalanceRow `json:"students"`
	Totals   engine.Ledger     `json:"totals"`
}

// NewFeeHeadResponse converts a fee head into a DTO.
func NewFeeHeadResponse(fee models.FeeHead) FeeHeadResponse {
	return FeeHeadResponse{
		ID:        fee.ID,
		Name:      fee.Name,
		Amount:    fee.Amount,
		ClassID:   fee.ClassID,
		Session:   fee.Session,
		Term:      fee.Term,
		CreatedAt: fee.CreatedAt,
	}
}

// NewFeeHeadResponses converts a slice of fee heads.
func NewFeeHeadResponses(fees []models.FeeHead) []FeeHeadResponse {
	items := make([]FeeHeadResponse, 0, len(fees))
	for _, fee := range fees {
		items = append(items, NewFeeHeadResponse(fee))
	}
	return items
}

// NewPaymentResponse converts a payment into a DTO.
func NewPaymentResponse(payment models.Payment) PaymentResponse {
	items := make([]models.PaymentLineItem, 0, len(payment.LineItems))
	items = append(items, payment.LineItems...)
	return PaymentResponse{
		ID:         payment.ID,
		StudentID:  payment.StudentID,
		Amount:     payment.Amount,
		Method:     payment.Method,
		Date:       payment.Date,
		Session:    payment.Session,
		Term:       payment.Term,
		Reference:  payment.Reference,
		LineItems:  items,
		RecordedBy: payment.RecordedBy,
		CreatedAt:  payment.CreatedAt,
	}
}

// NewPaymentResponses converts a slice of payments.
func NewPaymentResponses(payments []models.Payment) []PaymentResponse {
	items := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		items = append(items, NewPaymentResponse(payment))
	}
	return items
}
