package packages

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/db/dbtest"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(client.DB()),
		Tx:     client,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, client.DB()
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "Home 10", SpeedMbps: 10, Price: 0})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Create(ctx, Input{Name: " ", SpeedMbps: 10, Price: 150000})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Create(ctx, Input{Name: "Home 10", SpeedMbps: 0, Price: 150000})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestCreateListUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, Input{Name: "Business 50", SpeedMbps: 50, Price: 450000})
	require.NoError(t, err)
	a, err := svc.Create(ctx, Input{Name: " Home 10 ", SpeedMbps: 10, Price: 150000})
	require.NoError(t, err)
	assert.Equal(t, "Home 10", a.Name)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, b.ID, rows[0].ID)

	updated, err := svc.Update(ctx, a.ID, Input{Name: "Home 20", SpeedMbps: 20, Price: 200000})
	require.NoError(t, err)
	assert.Equal(t, int64(200000), updated.Price)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home 20", got.Name)
	assert.Equal(t, 20, got.SpeedMbps)
}

func TestGetAndUpdateUnknownPackage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Update(ctx, uuid.New(), Input{Name: "x", SpeedMbps: 1, Price: 1})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteDetachesCustomers(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	pkg, err := svc.Create(ctx, Input{Name: "Home 10", SpeedMbps: 10, Price: 150000})
	require.NoError(t, err)

	customer := models.Customer{
		ID:        uuid.New(),
		Name:      "Budi Santoso",
		Address:   "Jl. Merdeka 1",
		Phone:     "0812000001",
		PackageID: &pkg.ID,
		Status:    enums.CustomerStatusActive,
		JoinedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&customer).Error)

	require.NoError(t, svc.Delete(ctx, pkg.ID))

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Nil(t, reloaded.PackageID)

	_, err = svc.Get(ctx, pkg.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteUnknownPackage(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Delete(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
