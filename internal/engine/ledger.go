package engine

import "github.com/noah-isme/scholar-ledger-api/internal/models"

// Ledger is a student's bursary position for one session and term. A negative
// Balance means the student is in credit.
type Ledger struct {
	TotalBill float64 `json:"total_bill"`
	TotalPaid float64 `json:"total_paid"`
	Balance   float64 `json:"balance"`
}

// ApplicableFees returns the fee heads that bill the student for the session
// and term: those scoped to the student's class plus those with no class.
func ApplicableFees(student models.Student, fees []models.FeeHead, session, term string) []models.FeeHead {
	applicable := make([]models.FeeHead, 0)
	for _, fee := range fees {
		if fee.InScope(session, term) && fee.AppliesToClass(student.ClassID) {
			applicable = append(applicable, fee)
		}
	}
	return applicable
}

// StudentPayments returns the payments the student made for the session and term.
func StudentPayments(studentID uint, payments []models.Payment, session, term string) []models.Payment {
	matched := make([]models.Payment, 0)
	for _, payment := range payments {
		if payment.StudentID == studentID && payment.InScope(session, term) {
			matched = append(matched, payment)
		}
	}
	return matched
}

// Balance totals the student's applicable fee heads and payments. Every
// matching fee head is additive; amounts are summed as given with no rounding.
func Balance(student models.Student, fees []models.FeeHead, payments []models.Payment, session, term string) Ledger {
	var ledger Ledger
	for _, fee := range ApplicableFees(student, fees, session, term) {
		ledger.TotalBill += fee.Amount
	}
	for _, payment := range StudentPayments(student.ID, payments, session, term) {
		ledger.TotalPaid += payment.Amount
	}
	ledger.Balance = ledger.TotalBill - ledger.TotalPaid
	return ledger
}
