package invoices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/metrics"
	"github.com/netbill/isp-billing/pkg/pagination"
	"github.com/netbill/isp-billing/pkg/types"
)

type invoiceRepository interface {
	EligibleCustomers(ctx context.Context, p types.Period) ([]eligibleCustomer, error)
	ExistsForPeriod(ctx context.Context, customerID uuid.UUID, p types.Period) (bool, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*InvoiceRow, error)
	List(ctx context.Context, q ListQuery) ([]InvoiceRow, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, receiptPath *string) (int64, error)
}

type receiptStore interface {
	Save(ctx context.Context, relPath string, r io.Reader) (string, error)
	Remove(relPath string) error
}

// Service exposes invoice generation, payment and listing.
type Service interface {
	Generate(ctx context.Context, p types.Period) (*GenerateResult, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, receipt *Receipt) (*InvoiceRow, error)
	Get(ctx context.Context, id uuid.UUID) (*InvoiceRow, error)
	List(ctx context.Context, q ListQuery) ([]InvoiceRow, error)
	Page(ctx context.Context, q ListQuery, page pagination.Params) (*Page, error)
}

// ServiceParams groups dependencies for the invoice service. Locker and
// Metrics are optional.
type ServiceParams struct {
	Repo    invoiceRepository
	Store   receiptStore
	Locker  PeriodLocker
	Metrics *metrics.BillingMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    invoiceRepository
	store   receiptStore
	locker  PeriodLocker
	metrics *metrics.BillingMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds an invoice service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("invoice repository required")
	}
	if params.Store == nil {
		return nil, errors.New("receipt store required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		store:   params.Store,
		locker:  params.Locker,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// Generate creates one unpaid invoice per eligible customer for the period.
// Customers already invoiced for the period and customers without a package
// are skipped, so repeated runs never duplicate invoices.
func (s *service) Generate(ctx context.Context, p types.Period) (*GenerateResult, error) {
	if err := p.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
	}
	ctx = s.logg.WithPeriod(ctx, p.Month, p.Year)

	if s.locker != nil {
		release, ok, err := s.locker.Lock(ctx, p)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire generation lock")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "invoice generation already running for period").
				WithDetails(map[string]any{"period": p.String()})
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logg.Error(ctx, "release generation lock", err)
			}
		}()
	}

	candidates, err := s.repo.EligibleCustomers(ctx, p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load eligible customers")
	}

	result := &GenerateResult{Period: p}
	for _, c := range candidates {
		exists, err := s.repo.ExistsForPeriod(ctx, c.CustomerID, p)
		if err != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing invoice")
		}
		if exists {
			result.SkippedDuplicate++
			s.metrics.IncSkipped(metrics.SkipReasonDuplicate)
			continue
		}
		if c.PackagePrice == nil {
			result.SkippedMissingPackage++
			s.metrics.IncSkipped(metrics.SkipReasonMissingPackage)
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"customer_id":   c.CustomerID.String(),
				"customer_name": c.CustomerName,
			}), "customer has no package, skipping invoice")
			continue
		}

		invoice := &models.Invoice{
			ID:         uuid.New(),
			CustomerID: c.CustomerID,
			Month:      p.Month,
			Year:       p.Year,
			Amount:     *c.PackagePrice,
			Status:     enums.InvoiceStatusUnpaid,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.repo.Create(ctx, invoice); err != nil {
			if db.IsUniqueViolation(err, "") {
				result.SkippedDuplicate++
				s.metrics.IncSkipped(metrics.SkipReasonDuplicate)
				continue
			}
			return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}
		result.Created++
	}

	s.metrics.AddGenerated(p.String(), result.Created)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"created":                 result.Created,
		"skipped_duplicate":       result.SkippedDuplicate,
		"skipped_missing_package": result.SkippedMissingPackage,
	}), "invoices generated")
	return result, nil
}

// MarkPaid records a payment. A supplied receipt is stored under the upload
// root before the invoice row is updated.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, receipt *Receipt) (*InvoiceRow, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	paidAt = paidAt.UTC()

	var storedPath *string
	if receipt != nil {
		sniffed, err := sniffReceipt(receipt)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid receipt")
		}
		period := types.Period{Month: invoice.Month, Year: invoice.Year}
		rel, err := s.store.Save(ctx, receiptPath(period, invoice.CustomerName, sniffed.extension), sniffed.reader())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store receipt")
		}
		storedPath = &rel
	}

	n, err := s.repo.MarkPaid(ctx, id, paidAt, storedPath)
	if err == nil && n == 0 {
		err = fmt.Errorf("invoice %s disappeared", id)
	}
	if err != nil {
		if storedPath != nil {
			if rmErr := s.store.Remove(*storedPath); rmErr != nil {
				s.logg.Error(ctx, "remove orphaned receipt", rmErr)
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice paid")
	}

	s.metrics.IncPaid()
	s.logg.Info(s.logg.WithField(ctx, "invoice_id", id.String()), "invoice marked paid")

	invoice.Status = enums.InvoiceStatusPaid
	invoice.PaidAt = &paidAt
	if storedPath != nil {
		invoice.ReceiptPath = storedPath
	}
	return invoice, nil
}

// Get loads one invoice with its customer name.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*InvoiceRow, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// Page returns at most page.Limit invoices following page.Cursor.
func (s *service) Page(ctx context.Context, q ListQuery, page pagination.Params) (*Page, error) {
	after, err := pagination.ParsePeriodCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	q.After = after
	q.Limit = pagination.LimitWithBuffer(page.Limit)

	rows, err := s.List(ctx, q)
	if err != nil {
		return nil, err
	}
	items, next := pagination.Trim(rows, page.Limit, InvoiceRow.cursor)
	if items == nil {
		items = []InvoiceRow{}
	}
	return &Page{Items: items, NextCursor: next}, nil
}

// List returns every invoice matching q, newest period first.
func (s *service) List(ctx context.Context, q ListQuery) ([]InvoiceRow, error) {
	if q.Period != nil {
		if err := q.Period.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
		}
	}
	if q.Status != nil && !q.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return rows, nil
}
