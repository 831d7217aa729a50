package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the billing record produced when a pending document is
// processed. OriginalTotal is the amount extracted from the document and
// BilledTotal is the amount after the supplier markup.
type Invoice struct {
	ID            string          `json:"id"`
	WorkspaceID   string          `json:"workspaceId"`
	SupplierID    string          `json:"supplierId"`
	DocumentID    string          `json:"documentId"`
	SupplierEmail string          `json:"supplierEmail"`
	OriginalTotal decimal.Decimal `json:"originalTotal"`
	BilledTotal   decimal.Decimal `json:"billedTotal"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	CreatedAt     time.Time       `json:"createdAt"`
}
