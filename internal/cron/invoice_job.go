package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/netbill/isp-billing/internal/invoices"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/types"
	"go.uber.org/multierr"
)

const invoiceJobName = "invoice-generation"

type invoiceGenerator interface {
	Generate(ctx context.Context, p types.Period) (*invoices.GenerateResult, error)
}

// InvoiceJobParams configure the monthly invoice generation job.
type InvoiceJobParams struct {
	Logger        *logger.Logger
	Generator     invoiceGenerator
	CatchUpMonths int
	Now           func() time.Time
}

type invoiceJob struct {
	logg          *logger.Logger
	generator     invoiceGenerator
	catchUpMonths int
	now           func() time.Time
}

// NewInvoiceJob builds the job that generates invoices for the current period
// and, when CatchUpMonths > 0, for that many preceding periods.
func NewInvoiceJob(params InvoiceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("invoice generator required")
	}
	if params.CatchUpMonths < 0 {
		return nil, fmt.Errorf("catch up months must not be negative")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &invoiceJob{
		logg:          params.Logger,
		generator:     params.Generator,
		catchUpMonths: params.CatchUpMonths,
		now:           now,
	}, nil
}

func (j *invoiceJob) Name() string { return invoiceJobName }

// Run walks the periods oldest first. A period that another generator is
// already processing is skipped; other failures are collected so the
// remaining periods still run.
func (j *invoiceJob) Run(ctx context.Context) error {
	current := types.PeriodOf(j.now())
	var errs error
	for i := j.catchUpMonths; i >= 0; i-- {
		p := current.AddMonths(-i)
		periodCtx := j.logg.WithPeriod(ctx, p.Month, p.Year)

		result, err := j.generator.Generate(periodCtx, p)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				j.logg.Info(periodCtx, "period generation already in progress, skipping")
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("generate %s: %w", p, err))
			continue
		}
		j.logg.Info(j.logg.WithField(periodCtx, "created", result.Created), "period generated")
	}
	return errs
}
