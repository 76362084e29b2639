package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/money"
)

// Line is one cart entry handed to the allocator.
type Line struct {
	ID         uuid.UUID
	FinalPrice decimal.Decimal
}

// Allocation is the per-line share of an aggregate discount.
type Allocation struct {
	ID                uuid.UUID
	AllocatedDiscount decimal.Decimal
	FinalAmount       decimal.Decimal
}

// Allocate distributes totalDiscount across lines proportionally to each
// line's price, penny-exact: the allocated shares always sum to the (possibly
// clamped) total. Rounding remainder lands on the last line still carrying
// capacity. A line is never driven below zero; excess from a capped line is
// redistributed over the rest. When every price is zero the discount splits
// evenly.
func Allocate(lines []Line, totalDiscount decimal.Decimal) []Allocation {
	n := len(lines)
	out := make([]Allocation, n)
	prices := make([]int64, n)
	var priceSum int64
	for i, l := range lines {
		prices[i] = money.Cents(l.FinalPrice)
		priceSum += prices[i]
	}

	discount := money.Cents(totalDiscount)
	if discount < 0 {
		discount = 0
	}

	allocs := make([]int64, n)
	if priceSum == 0 {
		evenSplit(allocs, discount)
	} else {
		if discount > priceSum {
			discount = priceSum
		}
		proportionalSplit(allocs, prices, discount)
	}

	for i, l := range lines {
		allocated := money.FromCents(allocs[i])
		out[i] = Allocation{
			ID:                l.ID,
			AllocatedDiscount: allocated,
			FinalAmount:       money.ClampFloor(l.FinalPrice.Sub(allocated), decimal.Zero),
		}
	}
	return out
}

func evenSplit(allocs []int64, discount int64) {
	n := int64(len(allocs))
	if n == 0 {
		return
	}
	share := discount / n
	for i := range allocs {
		allocs[i] = share
	}
	// remainder cents land on the last line
	allocs[len(allocs)-1] += discount - share*n
}

// proportionalSplit runs proportional passes over the lines that still have
// capacity, so a share that would drive one line negative is redistributed
// across the others instead of dropped.
func proportionalSplit(allocs, prices []int64, discount int64) {
	active := make([]int, 0, len(prices))
	for i := range prices {
		active = append(active, i)
	}
	remaining := discount
	for remaining > 0 && len(active) > 0 {
		var capacity int64
		for _, i := range active {
			capacity += prices[i] - allocs[i]
		}
		if capacity <= 0 {
			break
		}
		var distributed int64
		for pos, i := range active {
			headroom := prices[i] - allocs[i]
			var share int64
			if pos == len(active)-1 {
				share = remaining - distributed
			} else {
				share = remaining * headroom / capacity
			}
			if share > headroom {
				share = headroom
			}
			allocs[i] += share
			distributed += share
		}
		remaining -= distributed
		next := active[:0]
		for _, i := range active {
			if prices[i]-allocs[i] > 0 {
				next = append(next, i)
			}
		}
		active = next
		if distributed == 0 {
			break
		}
	}
}
