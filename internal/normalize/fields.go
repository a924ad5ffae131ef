package normalize

import (
	"strings"
)

// Field is a canonical semantic column.
type Field string

const (
	FieldUnknown        Field = ""
	FieldProvider       Field = "provider"
	FieldLender         Field = "lender"
	FieldProductName    Field = "product_name"
	FieldLoanAmount     Field = "loan_amount"
	FieldLTV            Field = "ltv"
	FieldDocumentDate   Field = "document_date"
	FieldMarginBucket   Field = "margin_bucket"
	FieldPremiumBand    Field = "premium_band"
	FieldPurchaseType   Field = "purchase_type"
	FieldTerm           Field = "term"
	FieldInitialRate    Field = "initial_rate"
	FieldSwapRate       Field = "swap_rate"
	FieldGrossMargin    Field = "gross_margin"
	FieldFlatFees       Field = "flat_fees"
	FieldPercentageFees Field = "percentage_fees"
)

// fieldAliases maps folded header names to canonical fields.
var fieldAliases = map[string]Field{
	"provider":          FieldProvider,
	"baselender":        FieldLender,
	"lender":            FieldLender,
	"lendername":        FieldLender,
	"productname":       FieldProductName,
	"product":           FieldProductName,
	"loan":              FieldLoanAmount,
	"loanamount":        FieldLoanAmount,
	"loansize":          FieldLoanAmount,
	"ltv":               FieldLTV,
	"loantovalue":       FieldLTV,
	"documentdate":      FieldDocumentDate,
	"docdate":           FieldDocumentDate,
	"date":              FieldDocumentDate,
	"grossmarginbucket": FieldMarginBucket,
	"marginbucket":      FieldMarginBucket,
	"premiumband":       FieldPremiumBand,
	"band":              FieldPremiumBand,
	"purchasetype":      FieldPurchaseType,
	"term":              FieldTerm,
	"initialrate":       FieldInitialRate,
	"rate":              FieldInitialRate,
	"swaprate":          FieldSwapRate,
	"swap":              FieldSwapRate,
	"grossmargin":       FieldGrossMargin,
	"margin":            FieldGrossMargin,
	"flatfees":          FieldFlatFees,
	"flatfee":           FieldFlatFees,
	"percentagefees":    FieldPercentageFees,
	"percentagefee":     FieldPercentageFees,
}

// looseAliases are generic headers that only claim a field when no specific
// header for it is present.
var looseAliases = map[string]bool{
	"date":    true,
	"rate":    true,
	"margin":  true,
	"band":    true,
	"swap":    true,
	"product": true,
}

// foldHeader lowercases a header and drops BOMs, spaces, underscores and hyphens.
func foldHeader(header string) string {
	header = strings.TrimPrefix(strings.TrimSpace(header), "\ufeff")
	header = strings.TrimLeft(header, "\u200B\u200C\u200D\u2060")
	var b strings.Builder
	b.Grow(len(header))
	for _, r := range strings.ToLower(header) {
		switch r {
		case ' ', '_', '-', '.', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CanonicalField maps a raw column header to its semantic field.
func CanonicalField(header string) Field {
	return fieldAliases[foldHeader(header)]
}

// ColumnMapping is the resolved header-to-field table for one source.
type ColumnMapping struct {
	// Fields maps each recognised raw header to its canonical field. A specific
	// header beats a loose one (DocumentDate over Date); otherwise the first
	// header claiming a field wins.
	Fields map[string]Field
	// Unmapped lists headers with no canonical field, in source order.
	Unmapped []string
}

// MapColumns resolves every header of a source.
func MapColumns(headers []string) ColumnMapping {
	mapping := ColumnMapping{Fields: make(map[string]Field, len(headers))}
	claimed := make(map[Field]bool)
	mapped := make([]bool, len(headers))

	for _, loose := range []bool{false, true} {
		for i, h := range headers {
			folded := foldHeader(h)
			f := fieldAliases[folded]
			if f == FieldUnknown || looseAliases[folded] != loose || claimed[f] {
				continue
			}
			claimed[f] = true
			mapped[i] = true
			mapping.Fields[h] = f
		}
	}

	for i, h := range headers {
		if !mapped[i] && strings.TrimSpace(h) != "" {
			mapping.Unmapped = append(mapping.Unmapped, h)
		}
	}
	return mapping
}

// Has reports whether any header maps to f.
func (m ColumnMapping) Has(f Field) bool {
	for _, mapped := range m.Fields {
		if mapped == f {
			return true
		}
	}
	return false
}
