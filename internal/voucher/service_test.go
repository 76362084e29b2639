package voucher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type stubQuerier struct {
	vouchers map[string]Voucher
}

func (s *stubQuerier) FindByCode(_ context.Context, code string) (Voucher, error) {
	v, ok := s.vouchers[strings.ToUpper(code)]
	if !ok {
		return Voucher{}, pgx.ErrNoRows
	}
	return v, nil
}

func newService(vouchers ...Voucher) *Service {
	q := &stubQuerier{vouchers: map[string]Voucher{}}
	for _, v := range vouchers {
		q.vouchers[strings.ToUpper(v.Code)] = v
	}
	return &Service{Q: q, Now: func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }}
}

func TestEvaluateEmptyCodeIsDistinctReason(t *testing.T) {
	svc := newService()

	verdict, err := svc.Evaluate(context.Background(), "  ", dec("999"))
	require.NoError(t, err)
	require.False(t, verdict.Valid)
	require.Equal(t, ErrNoCode.Error(), verdict.Reason)
	require.Nil(t, verdict.Voucher)
}

func TestEvaluateUnknownCodeInvalidNotError(t *testing.T) {
	svc := newService()

	verdict, err := svc.Evaluate(context.Background(), "NOPE", dec("999"))
	require.NoError(t, err)
	require.False(t, verdict.Valid)
	require.Equal(t, ErrUnknownCode.Error(), verdict.Reason)
}

func TestEvaluateCaseInsensitiveLookup(t *testing.T) {
	svc := newService(validVoucher())

	verdict, err := svc.Evaluate(context.Background(), " save10 ", dec("999"))
	require.NoError(t, err)
	require.True(t, verdict.Valid)
	require.True(t, verdict.Discount.Equal(dec("99.90")), "got %s", verdict.Discount)
	require.NotNil(t, verdict.Voucher)
}

func TestEvaluateRejectionCarriesVoucherAndReason(t *testing.T) {
	v := validVoucher()
	v.MinimumOrderAmount = dec("5000")
	svc := newService(v)

	verdict, err := svc.Evaluate(context.Background(), "SAVE10", dec("999"))
	require.NoError(t, err)
	require.False(t, verdict.Valid)
	require.Contains(t, verdict.Reason, "5000.00")
	require.True(t, verdict.Discount.IsZero())
}
