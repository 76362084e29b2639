package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the payment lifecycle of an order.
type PaymentStatus string

// Payment statuses. Orders are created Pending; everything after that is an
// administrator action.
const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentCancelled PaymentStatus = "Cancelled"
	PaymentRefunded  PaymentStatus = "Refunded"
)

// Status tracks the fulfilment state of an order.
type Status string

// Order statuses.
const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusExpired   Status = "Expired"
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Order is one purchased subscription line. Prices are snapshotted at
// checkout; later catalog edits never touch existing orders. Orders are
// never deleted.
type Order struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	ProductID           uuid.UUID
	Quantity            int
	UnitPrice           decimal.Decimal
	TotalAmount         decimal.Decimal
	DiscountAmount      decimal.Decimal
	FinalAmount         decimal.Decimal
	VoucherID           *uuid.UUID
	VoucherCode         *string
	DurationMonths      int
	OriginalPrice       decimal.Decimal
	FinalPrice          decimal.Decimal
	SubscriptionEndDate time.Time
	PaymentStatus       PaymentStatus
	Status              Status
	OrderDate           time.Time
}
