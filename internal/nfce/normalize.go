package nfce

import (
	"fmt"
	"strings"
	"time"

	"github.com/notafacil/nfce-collector/internal/domain"
	"github.com/notafacil/nfce-collector/internal/timezone"
)

// TimestampFormatError signals that the captured emission timestamp does
// not match the fixed DD/MM/YYYY HH:MM:SS pattern (or was never captured).
type TimestampFormatError struct {
	Value string
}

func (e *TimestampFormatError) Error() string {
	return fmt.Sprintf("nfce: emission timestamp %q does not match DD/MM/YYYY HH:MM:SS", e.Value)
}

// Code is the stable machine identifier for this failure kind.
func (e *TimestampFormatError) Code() string { return "timestamp_format" }

const issuedAtLayout = "02/01/2006 15:04:05"

// Normalize converts a RawReceipt into its canonical form: decimal commas
// become dots on every monetary and quantity field (idempotent), the
// emission timestamp is parsed as wall-clock time in America/Sao_Paulo,
// multi-line address text is collapsed to single spaces, and every line
// item gets the receipt's access key as its back-reference.
func Normalize(raw *RawReceipt) (*domain.Receipt, error) {
	issuedAt, err := time.ParseInLocation(issuedAtLayout, raw.IssuedAt, timezone.SaoPaulo)
	if err != nil {
		return nil, &TimestampFormatError{Value: raw.IssuedAt}
	}

	r := &domain.Receipt{
		AccessKey:         raw.AccessKey,
		MerchantName:      raw.MerchantName,
		CNPJ:              raw.CNPJ,
		Address:           collapseWhitespace(raw.Address),
		PurchaseTimestamp: issuedAt,
		TotalItems:        decimalDot(raw.TotalItems),
		TotalAmount:       decimalDot(raw.TotalAmount),
		Discount:          decimalDot(raw.Discount),
		PaidAmount:        decimalDot(raw.PaidAmount),
	}

	for _, it := range raw.Items {
		r.Items = append(r.Items, domain.LineItem{
			Code:       it.Code,
			Name:       it.Name,
			Quantity:   decimalDot(it.Quantity),
			UnitType:   it.UnitType,
			UnitPrice:  decimalDot(it.UnitPrice),
			TotalPrice: decimalDot(it.TotalPrice),
			AccessKey:  raw.AccessKey,
		})
	}

	return r, nil
}

func decimalDot(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
