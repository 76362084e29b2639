package voucher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/obs"
)

// Querier captures the database methods required by the voucher service.
type Querier interface {
	FindByCode(ctx context.Context, code string) (Voucher, error)
}

// Verdict is the outcome of evaluating a code against an order amount.
// An invalid verdict is not an error: the checkout proceeds with zero
// voucher discount and the reason is surfaced to the caller.
type Verdict struct {
	Valid    bool
	Discount decimal.Decimal
	Reason   string
	Voucher  *Voucher
}

// Service evaluates voucher codes without mutating usage state.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Evaluate validates the code against the post-bundle amount. Only
// infrastructure failures return an error; every rule rejection comes back
// as an invalid Verdict carrying the first failing reason.
func (s *Service) Evaluate(ctx context.Context, code string, amountAfterBundle decimal.Decimal) (Verdict, error) {
	if s == nil || s.Q == nil {
		return Verdict{}, errors.New("voucher service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		observeValidation("none_supplied")
		return Verdict{Reason: ErrNoCode.Error()}, nil
	}
	v, err := s.Q.FindByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			observeValidation("unknown_code")
			return Verdict{Reason: ErrUnknownCode.Error()}, nil
		}
		return Verdict{}, err
	}
	if err := v.Validate(s.now(), amountAfterBundle); err != nil {
		observeValidation(reasonLabel(err))
		return Verdict{Reason: err.Error(), Voucher: &v}, nil
	}
	observeValidation("valid")
	return Verdict{
		Valid:    true,
		Discount: v.Discount(amountAfterBundle),
		Voucher:  &v,
	}, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func reasonLabel(err error) string {
	var minErr *MinimumOrderError
	switch {
	case errors.Is(err, ErrVoucherInactive):
		return "inactive"
	case errors.Is(err, ErrVoucherExpired):
		return "expired"
	case errors.Is(err, ErrUsageLimitReached):
		return "usage_limit"
	case errors.As(err, &minErr):
		return "minimum_order"
	default:
		return "other"
	}
}

func observeValidation(reason string) {
	if obs.VoucherValidationTotal != nil {
		obs.VoucherValidationTotal.WithLabelValues(reason).Inc()
	}
}
