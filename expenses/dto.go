package expenses

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/user/expenses-go/apperror"
)

const (
	// maxAmountText caps the raw JSON text of an amount, quotes included.
	maxAmountText = 32
	// Exponent window checked before any decimal arithmetic. Rounding and
	// comparing rescale both operands to one exponent, so an input such as
	// "1e-99999999" would otherwise build a huge big.Int.
	minAmountExp = -12
	maxAmountExp = 10
)

// maxAmount is the exclusive bound of NUMERIC(12, 2).
var maxAmount = decimal.New(1, 10)

var errAmountTooLong = errors.New("amount is too long")

// Amount is a request decimal whose JSON text is length-checked before
// parsing.
type Amount struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if len(b) > maxAmountText {
		return errAmountTooLong
	}
	return a.Decimal.UnmarshalJSON(b)
}

// ExpenseRequest is the body of create and update. There is deliberately no
// user id field: the owner always comes from the bearer token.
type ExpenseRequest struct {
	Category    string  `json:"category" validate:"required,max=100" example:"food"`
	Description string  `json:"description" validate:"max=500" example:"lunch"`
	Amount      *Amount `json:"amount" validate:"required" swaggertype:"string" example:"12.50"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02" example:"2024-01-01"`
}

// Input converts a tag-validated request into repository input. It applies
// the checks struct tags cannot express.
func (r ExpenseRequest) Input() (Input, error) {
	amount := r.Amount.Decimal
	switch exp := amount.Exponent(); {
	case exp > maxAmountExp:
		return Input{}, apperror.NewValidationError("amount is out of range", nil)
	case exp < minAmountExp:
		return Input{}, apperror.NewValidationError("amount must have at most 2 decimal places", nil)
	}
	if !amount.Equal(amount.Round(2)) {
		return Input{}, apperror.NewValidationError("amount must have at most 2 decimal places", nil)
	}
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return Input{}, apperror.NewValidationError("amount is out of range", nil)
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return Input{}, apperror.NewValidationError("date must be a date formatted as 2006-01-02", err)
	}
	return Input{
		Category:    r.Category,
		Description: r.Description,
		Amount:      amount.Round(2),
		Date:        date,
	}, nil
}

// ExpenseResponse wraps a single expense.
type ExpenseResponse struct {
	Status string   `json:"status" example:"success"`
	Data   *Expense `json:"data"`
}

// ExpenseListResponse wraps the caller's expenses.
type ExpenseListResponse struct {
	Status  string    `json:"status" example:"success"`
	Results int       `json:"results" example:"1"`
	Data    []Expense `json:"data"`
}

// StatusResponse is returned by delete.
type StatusResponse struct {
	Status string `json:"status" example:"success"`
}
