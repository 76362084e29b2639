package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-subshop/internal/common"
)

// Selection is one line of user input: a product plus a subscription duration.
type Selection struct {
	ProductID      uuid.UUID `json:"productId"`
	DurationMonths int       `json:"durationMonths"`
}

// Cart is an explicit value handed into every pricing call. The caller owns
// its storage; nothing here reads ambient session state.
type Cart struct {
	Selections []Selection
}

// New validates raw selections into a Cart. At most one selection per
// product is allowed.
func New(selections []Selection) (Cart, error) {
	seen := make(map[uuid.UUID]struct{}, len(selections))
	for _, sel := range selections {
		if sel.ProductID == uuid.Nil {
			return Cart{}, &common.AppError{
				Code:       "BAD_REQUEST",
				Message:    "productId is required on every cart item",
				HTTPStatus: http.StatusBadRequest,
			}
		}
		if sel.DurationMonths < 1 {
			return Cart{}, &common.AppError{
				Code:       "BAD_REQUEST",
				Message:    "durationMonths must be at least 1",
				HTTPStatus: http.StatusBadRequest,
				Details:    map[string]any{"productId": sel.ProductID.String()},
			}
		}
		if _, dup := seen[sel.ProductID]; dup {
			return Cart{}, &common.AppError{
				Code:       "BAD_REQUEST",
				Message:    "cart holds more than one selection for the same product",
				HTTPStatus: http.StatusBadRequest,
				Details:    map[string]any{"productId": sel.ProductID.String()},
			}
		}
		seen[sel.ProductID] = struct{}{}
	}
	return Cart{Selections: selections}, nil
}

// Empty reports whether the cart holds no selections.
func (c Cart) Empty() bool {
	return len(c.Selections) == 0
}
