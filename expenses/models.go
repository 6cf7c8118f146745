// Package expenses implements owner-scoped CRUD over expense records.
// Every query binds the authenticated user id, so one user can never read
// or change another user's rows.
package expenses

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of Expense.Date.
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date time.Time

// ParseDate parses s in DateLayout, in UTC.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t), nil
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	t := time.Time(d)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return time.Time(d).Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Expense is a single spending record owned by one user.
type Expense struct {
	ID          int64           `json:"id" example:"12"`
	UserID      int64           `json:"user_id" example:"1"`
	Category    string          `json:"category" example:"food"`
	Description string          `json:"description" example:"lunch"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Date        Date            `json:"date" swaggertype:"string" example:"2024-01-01"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Input holds the mutable fields of an expense, already validated.
type Input struct {
	Category    string
	Description string
	Amount      decimal.Decimal
	Date        Date
}
