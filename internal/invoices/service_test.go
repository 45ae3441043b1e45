package invoices

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/db/dbtest"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/pagination"
	"github.com/netbill/isp-billing/pkg/redis"
	"github.com/netbill/isp-billing/pkg/storage/local"
	"github.com/netbill/isp-billing/pkg/types"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	march     = types.Period{Month: 3, Year: 2024}
	fixedNow  = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)

type fixture struct {
	db     *gorm.DB
	repo   *Repository
	root   string
	svc    Service
	locker PeriodLocker
}

func newFixture(t *testing.T, locker PeriodLocker) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	root := t.TempDir()
	store, err := local.New(root)
	require.NoError(t, err)

	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Store:  store,
		Locker: locker,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &fixture{db: conn, repo: repo, root: root, svc: svc, locker: locker}
}

func (f *fixture) seedPackage(t *testing.T, price int64) *models.ServicePackage {
	t.Helper()
	pkg := &models.ServicePackage{ID: uuid.New(), Name: "Home 20", SpeedMbps: 20, Price: price}
	require.NoError(t, f.db.Create(pkg).Error)
	return pkg
}

func (f *fixture) seedCustomer(t *testing.T, name string, pkg *models.ServicePackage, status enums.CustomerStatus, joined time.Time) *models.Customer {
	t.Helper()
	c := &models.Customer{
		ID:       uuid.New(),
		Name:     name,
		Address:  "Jl. Merdeka 1",
		Phone:    uuid.NewString()[:12],
		Status:   status,
		JoinedAt: joined,
	}
	if pkg != nil {
		c.PackageID = &pkg.ID
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateEligibility(t *testing.T) {
	f := newFixture(t, nil)
	pkg := f.seedPackage(t, 150000)

	f.seedCustomer(t, "Ani", pkg, enums.CustomerStatusActive, day(2024, time.January, 10))
	f.seedCustomer(t, "Budi", pkg, enums.CustomerStatusActive, day(2024, time.March, 1))
	f.seedCustomer(t, "Citra", pkg, enums.CustomerStatusActive, day(2024, time.March, 2))
	f.seedCustomer(t, "Dodi", pkg, enums.CustomerStatusInactive, day(2024, time.January, 1))
	f.seedCustomer(t, "Eka", pkg, enums.CustomerStatusSuspended, day(2024, time.January, 1))
	f.seedCustomer(t, "Fajar", nil, enums.CustomerStatusActive, day(2024, time.January, 1))

	result, err := f.svc.Generate(context.Background(), march)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.SkippedDuplicate)
	assert.Equal(t, 1, result.SkippedMissingPackage)

	rows, err := f.svc.List(context.Background(), ListQuery{Period: &march})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	names := []string{rows[0].CustomerName, rows[1].CustomerName}
	assert.ElementsMatch(t, []string{"Ani", "Budi"}, names)
	for _, row := range rows {
		assert.Equal(t, enums.InvoiceStatusUnpaid, row.Status)
		assert.Equal(t, int64(150000), row.Amount)
		assert.Nil(t, row.PaidAt)
		assert.True(t, row.CreatedAt.Equal(fixedNow))
	}
}

func TestEligibleCustomersBindsCalendarDate(t *testing.T) {
	f := newFixture(t, nil)

	var bound []any
	require.NoError(t, f.db.Callback().Row().After("gorm:row").Register("test:capture_vars", func(tx *gorm.DB) {
		bound = append([]any(nil), tx.Statement.Vars...)
	}))

	_, err := f.repo.EligibleCustomers(context.Background(), march)
	require.NoError(t, err)
	assert.Contains(t, bound, "2024-03-02")
	for _, v := range bound {
		_, isTime := v.(time.Time)
		assert.False(t, isTime, "join date bound as timestamp: %v", v)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	pkg := f.seedPackage(t, 200000)
	f.seedCustomer(t, "Ani", pkg, enums.CustomerStatusActive, day(2024, time.January, 1))
	f.seedCustomer(t, "Budi", pkg, enums.CustomerStatusActive, day(2024, time.February, 1))

	first, err := f.svc.Generate(context.Background(), march)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := f.svc.Generate(context.Background(), march)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.SkippedDuplicate)

	var count int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestGenerateSnapshotsPackagePrice(t *testing.T) {
	f := newFixture(t, nil)
	pkg := f.seedPackage(t, 150000)
	f.seedCustomer(t, "Ani", pkg, enums.CustomerStatusActive, day(2024, time.January, 1))

	_, err := f.svc.Generate(context.Background(), march)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.ServicePackage{}).Where("id = ?", pkg.ID).Update("price", 300000).Error)

	april := march.AddMonths(1)
	_, err = f.svc.Generate(context.Background(), april)
	require.NoError(t, err)

	rows, err := f.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].Month)
	assert.Equal(t, int64(300000), rows[0].Amount)
	assert.Equal(t, 3, rows[1].Month)
	assert.Equal(t, int64(150000), rows[1].Amount)
}

type racingRepo struct {
	*Repository
}

func (r racingRepo) ExistsForPeriod(context.Context, uuid.UUID, types.Period) (bool, error) {
	return false, nil
}

func TestGenerateTreatsUniqueViolationAsDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	pkg := f.seedPackage(t, 100000)
	c := f.seedCustomer(t, "Ani", pkg, enums.CustomerStatusActive, day(2024, time.January, 1))
	require.NoError(t, f.db.Create(&models.Invoice{
		ID: uuid.New(), CustomerID: c.ID, Month: 3, Year: 2024, Amount: 100000,
		Status: enums.InvoiceStatusUnpaid, CreatedAt: fixedNow,
	}).Error)

	store, err := local.New(f.root)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:   racingRepo{Repository: f.repo},
		Store:  store,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)

	result, err := svc.Generate(context.Background(), march)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.SkippedDuplicate)
}

func TestGenerateRejectsInvalidPeriod(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Generate(context.Background(), types.Period{Month: 0, Year: 2024})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestGenerateConflictsWhilePeriodLocked(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisPeriodLocker(client, time.Minute)
	f := newFixture(t, locker)
	pkg := f.seedPackage(t, 100000)
	f.seedCustomer(t, "Ani", pkg, enums.CustomerStatusActive, day(2024, time.January, 1))

	ctx := context.Background()
	release, ok, err := locker.Lock(ctx, march)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Generate(ctx, march)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	other, err := f.svc.Generate(ctx, march.AddMonths(1))
	require.NoError(t, err)
	assert.Equal(t, 1, other.Created)

	require.NoError(t, release(ctx))

	result, err := f.svc.Generate(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.False(t, mr.Exists(client.LockKey("invoices", march.String())))
}

func TestMarkPaidStoresReceipt(t *testing.T) {
	f := newFixture(t, nil)
	pkg := f.seedPackage(t, 100000)
	f.seedCustomer(t, "Siti Rahma Dewi", pkg, enums.CustomerStatusActive, day(2024, time.January, 1))
	_, err := f.svc.Generate(context.Background(), march)
	require.NoError(t, err)

	rows, err := f.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	paidAt := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	paid, err := f.svc.MarkPaid(context.Background(), rows[0].ID, paidAt, &Receipt{
		Filename: "transfer.PNG",
		Content:  bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.ReceiptPath)
	assert.Regexp(t, regexp.MustCompile(`^2024_03/Siti_Rahma_Dewi_[0-9a-f]{16}\.png$`), *paid.ReceiptPath)

	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(*paid.ReceiptPath)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	reloaded, err := f.svc.Get(context.Background(), rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPaid, reloaded.Status)
	require.NotNil(t, reloaded.PaidAt)
	assert.True(t, reloaded.PaidAt.Equal(paidAt))
	assert.Equal(t, *paid.ReceiptPath, *reloaded.ReceiptPath)
}

func TestMarkPaidWithoutReceipt(t *testing.T) {
	f := newFixture(t, nil)
	pkg := f.seedPackage(t, 100000)
	f.seedCustomer(t, "Ani", pkg, enums.CustomerStatusActive, day(2024, time.January, 1))
	_, err := f.svc.Generate(context.Background(), march)
	require.NoError(t, err)
	rows, err := f.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(context.Background(), rows[0].ID, time.Time{}, nil)
	require.NoError(t, err)
	assert.Nil(t, paid.ReceiptPath)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(fixedNow))

	status := enums.InvoiceStatusPaid
	filtered, err := f.svc.List(context.Background(), ListQuery{Status: &status})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestMarkPaidRejectsUnsupportedReceipt(t *testing.T) {
	f := newFixture(t, nil)
	pkg := f.seedPackage(t, 100000)
	f.seedCustomer(t, "Ani", pkg, enums.CustomerStatusActive, day(2024, time.January, 1))
	_, err := f.svc.Generate(context.Background(), march)
	require.NoError(t, err)
	rows, err := f.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(context.Background(), rows[0].ID, fixedNow, &Receipt{
		Filename: "notes.txt",
		Content:  bytes.NewReader([]byte("just some text")),
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	reloaded, err := f.svc.Get(context.Background(), rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusUnpaid, reloaded.Status)
}

func TestMarkPaidUnknownInvoice(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.MarkPaid(context.Background(), uuid.New(), fixedNow, nil)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestPageWalksListingInOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	pkg := f.seedPackage(t, 100000)
	for _, name := range []string{"Ani", "Budi", "Citra", "Dodi", "Eka"} {
		f.seedCustomer(t, name, pkg, enums.CustomerStatusActive, day(2023, time.December, 1))
	}
	for m := 1; m <= 3; m++ {
		_, err := f.svc.Generate(ctx, types.Period{Month: m, Year: 2024})
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 15)

	var walked []InvoiceRow
	cursor := ""
	for pages := 0; pages < 10; pages++ {
		page, err := f.svc.Page(ctx, ListQuery{}, pagination.Params{Limit: 4, Cursor: cursor})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page.Items), 4)
		walked = append(walked, page.Items...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	require.Len(t, walked, len(all))
	for i := range all {
		assert.Equal(t, all[i].ID, walked[i].ID, "row %d", i)
	}
	assert.Equal(t, 3, walked[0].Month)
	assert.Equal(t, 1, walked[len(walked)-1].Month)
}

func TestPageRejectsBadCursor(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Page(context.Background(), ListQuery{}, pagination.Params{Limit: 5, Cursor: "%%%"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
