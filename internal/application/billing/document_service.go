package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/partner"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PDFContentType is the MIME type of rendered bills
const PDFContentType = "application/pdf"

// BillDocument is the data printed on a bill
type BillDocument struct {
	ShopName        string
	Bill            BillResponse
	CustomerAccount string
	CustomerName    string
	CustomerAddress string
	IssuedAt        time.Time
}

// DocumentRenderer renders a bill to PDF bytes
type DocumentRenderer interface {
	RenderBill(ctx context.Context, doc *BillDocument) ([]byte, error)
}

// DocumentStore persists rendered documents
type DocumentStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// DocumentKey is the storage key of a bill's archived PDF
func DocumentKey(billNumber string) string {
	return "bills/" + billNumber + ".pdf"
}

// BillDocumentService renders bills and archives them to object storage
type BillDocumentService struct {
	bills     billing.BillRepository
	customers partner.CustomerRepository
	renderer  DocumentRenderer
	store     DocumentStore
	shopName  string
	now       func() time.Time
}

// NewBillDocumentService creates a new BillDocumentService. store may be nil,
// in which case Archive is a no-op.
func NewBillDocumentService(
	bills billing.BillRepository,
	customers partner.CustomerRepository,
	renderer DocumentRenderer,
	store DocumentStore,
	shopName string,
) *BillDocumentService {
	return &BillDocumentService{
		bills:     bills,
		customers: customers,
		renderer:  renderer,
		store:     store,
		shopName:  shopName,
		now:       time.Now,
	}
}

// RenderPDF renders the current state of a bill
func (s *BillDocumentService) RenderPDF(ctx context.Context, billID uuid.UUID) ([]byte, *BillResponse, error) {
	doc, err := s.document(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.renderer.RenderBill(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("render bill %s: %w", doc.Bill.BillNumber, err)
	}
	return data, &doc.Bill, nil
}

// Archive renders a bill and uploads it under DocumentKey. It returns the key.
func (s *BillDocumentService) Archive(ctx context.Context, billID uuid.UUID) (string, error) {
	if s.store == nil {
		return "", nil
	}

	data, bill, err := s.RenderPDF(ctx, billID)
	if err != nil {
		return "", err
	}

	key := DocumentKey(bill.BillNumber)
	if err := s.store.Upload(ctx, key, data, PDFContentType); err != nil {
		return "", fmt.Errorf("archive bill %s: %w", bill.BillNumber, err)
	}

	logger.L(ctx).Info("bill document archived",
		logger.BillNumber(bill.BillNumber),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return key, nil
}

// ArchivedURL returns a time-limited download link for an archived bill
func (s *BillDocumentService) ArchivedURL(ctx context.Context, billID uuid.UUID, expiresIn time.Duration) (string, time.Time, error) {
	bill, err := loadBill(ctx, s.bills, billID)
	if err != nil {
		return "", time.Time{}, err
	}
	if s.store == nil {
		return "", time.Time{}, documentNotFound(bill.BillNumber)
	}

	key := DocumentKey(bill.BillNumber)
	exists, err := s.store.ObjectExists(ctx, key)
	if err != nil {
		return "", time.Time{}, err
	}
	if !exists {
		return "", time.Time{}, documentNotFound(bill.BillNumber)
	}
	return s.store.GenerateDownloadURL(ctx, key, expiresIn)
}

func (s *BillDocumentService) document(ctx context.Context, billID uuid.UUID) (*BillDocument, error) {
	bill, err := loadBill(ctx, s.bills, billID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, bill.CustomerID)
	if err != nil {
		return nil, customerError(bill.CustomerID, err)
	}

	return &BillDocument{
		ShopName:        s.shopName,
		Bill:            ToBillResponse(bill),
		CustomerAccount: customer.AccountNumber,
		CustomerName:    customer.Name,
		CustomerAddress: customer.Address,
		IssuedAt:        s.now(),
	}, nil
}

func documentNotFound(billNumber string) error {
	return shared.NewDomainErrorf("DOCUMENT_NOT_FOUND", "No archived document for bill %s", billNumber).
		WithDetail("bill_number", billNumber)
}
