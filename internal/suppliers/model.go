package suppliers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier represents a vendor configured in a workspace. MarkupRate is a
// percentage (10 means 10%) applied when an invoice is billed onward.
type Supplier struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspaceId"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	MarkupRate  decimal.Decimal `json:"markupRate"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
