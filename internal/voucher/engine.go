package voucher

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/money"
)

var (
	// ErrNoCode is returned when validation runs without a code supplied.
	ErrNoCode = errors.New("no voucher code supplied")
	// ErrUnknownCode indicates the code matched no voucher.
	ErrUnknownCode = errors.New("voucher code not recognized")
	// ErrVoucherInactive is returned when the voucher has been deactivated.
	ErrVoucherInactive = errors.New("voucher is no longer active")
	// ErrVoucherExpired is returned when the voucher expiry date has passed.
	ErrVoucherExpired = errors.New("voucher has expired")
	// ErrUsageLimitReached indicates the voucher has exhausted its usage quota.
	ErrUsageLimitReached = errors.New("voucher usage limit reached")
)

// MinimumOrderError reports a rejection because the order total did not reach
// the voucher's minimum. The message names the minimum so callers can surface it.
type MinimumOrderError struct {
	Minimum decimal.Decimal
}

func (e *MinimumOrderError) Error() string {
	return fmt.Sprintf("order total below the minimum of %s", e.Minimum.StringFixed(2))
}

// Voucher is a reusable discount code with usage and eligibility limits.
type Voucher struct {
	ID                 uuid.UUID
	Code               string
	DiscountPercent    decimal.Decimal
	MaxDiscountAmount  decimal.Decimal
	MinimumOrderAmount decimal.Decimal
	ExpiryDate         *time.Time
	MaxUses            int
	UsedCount          int
	Active             bool
	CreatedAt          time.Time
}

// Validate checks applicability in a fixed order and reports the first
// failing rule. No state is mutated here; usage is consumed only at commit.
func (v Voucher) Validate(now time.Time, amountAfterBundle decimal.Decimal) error {
	if !v.Active {
		return ErrVoucherInactive
	}
	if v.ExpiryDate != nil && now.After(*v.ExpiryDate) {
		return ErrVoucherExpired
	}
	if v.UsedCount >= v.MaxUses {
		return ErrUsageLimitReached
	}
	if amountAfterBundle.LessThan(v.MinimumOrderAmount) {
		return &MinimumOrderError{Minimum: v.MinimumOrderAmount}
	}
	return nil
}

// Discount computes the voucher discount on the post-bundle amount, capped
// at MaxDiscountAmount.
func (v Voucher) Discount(amountAfterBundle decimal.Decimal) decimal.Decimal {
	pct := money.Percent(amountAfterBundle, v.DiscountPercent)
	return money.Min(pct, v.MaxDiscountAmount)
}

// Exhausted reports whether the voucher has no remaining uses.
func (v Voucher) Exhausted() bool {
	return v.UsedCount >= v.MaxUses
}
