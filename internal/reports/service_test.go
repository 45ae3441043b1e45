package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/settings"
	"github.com/netbill/isp-billing/pkg/db/dbtest"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

type seeder struct {
	t  *testing.T
	db *gorm.DB
}

func (s seeder) customer(name string, status enums.CustomerStatus) uuid.UUID {
	s.t.Helper()
	c := &models.Customer{
		ID: uuid.New(), Name: name, Address: "Jl. Mawar 2", Phone: uuid.NewString()[:12],
		Status: status, JoinedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(s.t, s.db.Create(c).Error)
	return c.ID
}

func (s seeder) invoice(customerID uuid.UUID, p types.Period, amount int64, paidAt *time.Time, created time.Time) {
	s.t.Helper()
	status := enums.InvoiceStatusUnpaid
	if paidAt != nil {
		status = enums.InvoiceStatusPaid
	}
	require.NoError(s.t, s.db.Create(&models.Invoice{
		ID: uuid.New(), CustomerID: customerID, Month: p.Month, Year: p.Year,
		Amount: amount, Status: status, PaidAt: paidAt, CreatedAt: created,
	}).Error)
}

func (s seeder) expense(desc string, amount int64, spent time.Time) {
	s.t.Helper()
	require.NoError(s.t, s.db.Create(&models.Expense{
		ID: uuid.New(), Description: desc, Amount: amount,
		Category: enums.ExpenseCategoryOperational, SpentAt: spent,
	}).Error)
}

func newTestService(t *testing.T) (Service, seeder) {
	t.Helper()
	conn := dbtest.Open(t)
	settingsSvc, err := settings.NewService(settings.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Settings: settingsSvc,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, seeder{t: t, db: conn}
}

func TestReportLoadsPeriodRows(t *testing.T) {
	svc, seed := newTestService(t)
	feb := march.AddMonths(-1)
	paid := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	ani := seed.customer("Ani", enums.CustomerStatusActive)
	budi := seed.customer("Budi", enums.CustomerStatusActive)
	seed.invoice(ani, march, 6000000, &paid, fixedNow)
	seed.invoice(budi, march, 4000000, &paid, fixedNow)
	seed.invoice(budi, feb, 9000000, &paid, fixedNow)
	seed.invoice(seed.customer("Citra", enums.CustomerStatusActive), march, 7000000, nil, fixedNow)

	seed.expense("Power", 400000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	seed.expense("Cable", 250000, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	seed.expense("Old", 999000, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	seed.expense("Next", 999000, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	report, err := svc.Report(context.Background(), march)
	require.NoError(t, err)
	assert.Equal(t, int64(10000000), report.GrossRevenue)
	assert.Equal(t, int64(650000), report.TotalExpense)
	require.Len(t, report.Revenue, 2)
	assert.Equal(t, "Ani", report.Revenue[0].CustomerName)
	require.Len(t, report.Expenses, 2)
	assert.Equal(t, "Power", report.Expenses[0].Description)
	require.NotNil(t, report.Split)
	assertDecimal(t, 3600000, report.Split.OperatorShare)
}

func TestReportUsesSavedSettings(t *testing.T) {
	conn := dbtest.Open(t)
	settingsSvc, err := settings.NewService(settings.NewRepository(conn))
	require.NoError(t, err)
	values := settings.DefaultValues()
	values.TargetRevenue = 20000000
	require.NoError(t, settingsSvc.Save(context.Background(), values))

	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Settings: settingsSvc})
	require.NoError(t, err)
	seed := seeder{t: t, db: conn}
	paid := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	seed.invoice(seed.customer("Ani", enums.CustomerStatusActive), march, 10000000, &paid, fixedNow)

	report, err := svc.Report(context.Background(), march)
	require.NoError(t, err)
	assert.Equal(t, int64(20000000), report.TargetRevenue)
	assert.Nil(t, report.Split)
}

func TestReportRejectsInvalidPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Report(context.Background(), types.Period{Month: 13, Year: 2024})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDashboard(t *testing.T) {
	svc, seed := newTestService(t)
	paid := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	ani := seed.customer("Ani", enums.CustomerStatusActive)
	budi := seed.customer("Budi", enums.CustomerStatusActive)
	seed.customer("Citra", enums.CustomerStatusInactive)
	for i := 0; i < 6; i++ {
		p := march.AddMonths(-i - 1)
		seed.invoice(ani, p, 100000, &paid, fixedNow.AddDate(0, -i-1, 0))
	}
	seed.invoice(ani, march, 150000, &paid, fixedNow.Add(time.Minute))
	seed.invoice(budi, march, 200000, nil, fixedNow.Add(2*time.Minute))
	seed.expense("Power", 50000, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, march, d.Period)
	assert.Equal(t, int64(150000), d.RevenuePaid)
	assert.Equal(t, int64(200000), d.RevenueUnpaid)
	assert.Equal(t, int64(50000), d.Expenses)
	assert.Equal(t, int64(2), d.ActiveCustomers)
	require.Len(t, d.RecentInvoices, 5)
	assert.Equal(t, "Budi", d.RecentInvoices[0].CustomerName)
	assert.Equal(t, enums.InvoiceStatusUnpaid, d.RecentInvoices[0].Status)
}

func TestSummary(t *testing.T) {
	svc, seed := newTestService(t)
	paid := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	ani := seed.customer("Ani", enums.CustomerStatusActive)
	seed.invoice(ani, types.Period{Month: 1, Year: 2024}, 300000, &paid, fixedNow)
	seed.invoice(ani, types.Period{Month: 2, Year: 2024}, 300000, nil, fixedNow)
	seed.expense("Router", 120000, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC))

	points, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, points, 6)
	assert.Equal(t, "Oct 2023", points[0].Label)
	assert.Equal(t, "Mar 2024", points[5].Label)
	assert.Equal(t, int64(120000), points[2].Expense)
	assert.Equal(t, int64(300000), points[3].Revenue)
	assert.Equal(t, int64(0), points[4].Revenue)

	_, err = svc.Summary(context.Background(), 36)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

type failingSettings struct{}

func (failingSettings) Load(context.Context) (settings.Values, error) {
	return settings.Values{}, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("down"), "load settings")
}

func TestReportPropagatesSettingsFailure(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: NewRepository(dbtest.Open(t)), Settings: failingSettings{}})
	require.NoError(t, err)
	_, err = svc.Report(context.Background(), march)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}
