package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/notafacil/nfce-collector/internal/domain"
	"github.com/notafacil/nfce-collector/internal/nfce"
	"github.com/notafacil/nfce-collector/internal/repository"
)

// DetailPagePrefix is the fixed host+path of the SEF/SC NFC-e detail page.
// Submitted URLs must contain it to be accepted.
const DetailPagePrefix = "https://sat.sef.sc.gov.br/tax.NET/Sat.DFe.NFCe.Web/Consultas/NFCe_Detalhes.aspx"

// ErrInvalidURL signals that the submitted content is not an NFC-e
// detail page URL.
var ErrInvalidURL = errors.New("url does not match the NFC-e detail page")

// Renderer turns a URL into fully rendered page HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Service runs one submission end to end: validate the URL, render the
// page, extract and normalize the receipt, guard against duplicates and
// store it.
type Service struct {
	renderer Renderer
	receipts *repository.ReceiptRepo
}

func NewService(renderer Renderer, receipts *repository.ReceiptRepo) *Service {
	return &Service{
		renderer: renderer,
		receipts: receipts,
	}
}

// IngestURL processes one submitted NFC-e URL and returns the stored
// canonical receipt. Duplicate submissions return
// repository.ErrDuplicateKey and leave the store untouched.
func (s *Service) IngestURL(ctx context.Context, rawURL string) (*domain.Receipt, error) {
	if !strings.Contains(rawURL, DetailPagePrefix) {
		ingestFailures.WithLabelValues("invalid_url").Inc()
		return nil, ErrInvalidURL
	}

	html, err := s.renderer.Render(ctx, rawURL)
	if err != nil {
		ingestFailures.WithLabelValues("render").Inc()
		return nil, fmt.Errorf("render page: %w", err)
	}

	raw, err := nfce.Extract(html)
	if err != nil {
		ingestFailures.WithLabelValues("extract").Inc()
		return nil, err
	}

	receipt, err := nfce.Normalize(raw)
	if err != nil {
		ingestFailures.WithLabelValues("normalize").Inc()
		return nil, err
	}

	// Duplicate guard. The check and the insert are separate statements;
	// the receipts primary key backstops the race between them, so a
	// second concurrent submission fails inside Insert rather than
	// inserting twice.
	exists, err := s.receipts.ExistsByKey(receipt.AccessKey)
	if err != nil {
		ingestFailures.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		duplicatesRejected.Inc()
		return nil, repository.ErrDuplicateKey
	}

	if err := s.receipts.Insert(receipt); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			duplicatesRejected.Inc()
			return nil, err
		}
		ingestFailures.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	receiptsIngested.Inc()
	slog.InfoContext(ctx, "receipt stored",
		"access_key", receipt.AccessKey,
		"merchant", receipt.MerchantName,
		"items", len(receipt.Items),
	)
	return receipt, nil
}
