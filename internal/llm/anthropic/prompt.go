package anthropic

import "strings"

const extractionPrompt = `You are an invoice data extraction assistant. Extract the following information from the invoice text below:

1. **supplier_email**: The email address of the supplier/vendor (company that sent the invoice)
2. **invoice_date**: The date of the invoice in YYYY-MM-DD format
3. **total_amount**: The total amount due (final total, not subtotals)

Rules:
- If you cannot find a field, set it to null
- For invoice_date, convert any date format to YYYY-MM-DD (e.g., "12/10/2025" -> "2025-12-10")
- For total_amount, extract only the numeric value (e.g., "$100.00" -> 100.00)
- Look for keywords like "Total", "Amount Due", "Balance Due" for the total
- Return ONLY valid JSON, no explanations

Response format (JSON only):
{
  "supplier_email": "billing@company.com",
  "invoice_date": "2025-12-10",
  "total_amount": 100.00
}

Invoice text:
---
%s
---

Extract the data as JSON:`

// BuildPrompt wraps the document text in the extraction instructions.
func BuildPrompt(documentText string) string {
	return strings.Replace(extractionPrompt, "%s", documentText, 1)
}
