package nfce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notafacil/nfce-collector/internal/timezone"
)

func sampleRaw() *RawReceipt {
	return &RawReceipt{
		MerchantName: "MERCADO BOM PRECO LTDA",
		CNPJ:         "83.646.984/0001-23",
		Address:      "RUA CORONEL ARISTILIANO RAMOS, 1560,\n      CENTRO, GASPAR, SC",
		IssuedAt:     "05/03/2024 14:30:00",
		TotalItems:   "2",
		TotalAmount:  "12,24",
		Discount:     "0,50",
		PaidAmount:   "11,74",
		AccessKey:    "12345678901234567890123456789012345678901234",
		Items: []RawItem{
			{Code: "7891234567890", Name: "AGUA MIN NATURAL 500ML", Quantity: "2", UnitType: "UN", UnitPrice: "2,50", TotalPrice: "5,00"},
			{Code: "123", Name: "PAO FRANCES KG", Quantity: "0,486", UnitType: "KG", UnitPrice: "14,90", TotalPrice: "7,24"},
		},
	}
}

func TestNormalize(t *testing.T) {
	receipt, err := Normalize(sampleRaw())
	require.NoError(t, err)

	expected := time.Date(2024, time.March, 5, 14, 30, 0, 0, timezone.SaoPaulo)
	require.True(t, receipt.PurchaseTimestamp.Equal(expected),
		"got %s, want %s", receipt.PurchaseTimestamp, expected)

	require.Equal(t, "RUA CORONEL ARISTILIANO RAMOS, 1560, CENTRO, GASPAR, SC", receipt.Address)
	require.Equal(t, "12.24", receipt.TotalAmount)
	require.Equal(t, "11.74", receipt.PaidAmount)

	// The original scraper parsed the discount but never wrote it onto
	// the record; that omission is fixed here.
	require.Equal(t, "0.50", receipt.Discount)

	require.Len(t, receipt.Items, 2)
	for _, it := range receipt.Items {
		require.Equal(t, receipt.AccessKey, it.AccessKey)
	}
	require.Equal(t, "0.486", receipt.Items[1].Quantity)
	require.Equal(t, "14.90", receipt.Items[1].UnitPrice)
	require.Equal(t, "7.24", receipt.Items[1].TotalPrice)
}

func TestNormalizeDecimalIsIdempotent(t *testing.T) {
	raw := sampleRaw()
	raw.TotalAmount = "12.24"
	raw.Items[0].UnitPrice = "2.50"

	receipt, err := Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, "12.24", receipt.TotalAmount)
	require.Equal(t, "2.50", receipt.Items[0].UnitPrice)
}

func TestNormalizeTimestampFormat(t *testing.T) {
	cases := []string{
		"",
		"2024-03-05 14:30:00",
		"05/03/2024",
		"05/03/2024 14:30",
	}
	for _, issuedAt := range cases {
		raw := sampleRaw()
		raw.IssuedAt = issuedAt

		_, err := Normalize(raw)
		var tsErr *TimestampFormatError
		require.ErrorAs(t, err, &tsErr, "IssuedAt=%q", issuedAt)
		require.Equal(t, issuedAt, tsErr.Value)
	}
}

func TestNormalizeKeepsOptionalFieldsEmpty(t *testing.T) {
	raw := sampleRaw()
	raw.MerchantName = ""
	raw.Address = ""
	raw.Discount = ""

	receipt, err := Normalize(raw)
	require.NoError(t, err)
	require.Empty(t, receipt.MerchantName)
	require.Empty(t, receipt.Address)
	require.Empty(t, receipt.Discount)
}
