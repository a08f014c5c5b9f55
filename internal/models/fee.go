package models

import "time"

// FeeHead is a billable charge for a session and term. A nil ClassID applies the
// fee to every class.
type FeeHead struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Amount    float64   `gorm:"type:numeric;not null" json:"amount"`
	ClassID   *uint     `gorm:"index" json:"class_id"`
	Session   string    `gorm:"size:32;not null;index:idx_fee_head_scope" json:"session"`
	Term      string    `gorm:"size:32;not null;index:idx_fee_head_scope" json:"term"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppliesToClass reports whether the fee head bills students of the given class.
func (f FeeHead) AppliesToClass(classID uint) bool {
	return f.ClassID == nil || *f.ClassID == classID
}

// InScope reports whether the fee head belongs to the session and term.
func (f FeeHead) InScope(session, term string) bool {
	return f.Session == session && f.Term == term
}
