package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"assetverse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err, "open db")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Asset{}, &model.AssetRequest{}, &model.Affiliation{}, &model.AuditLog{}))
	return db
}

func seedAsset(t *testing.T, db *gorm.DB, total, available int) model.Asset {
	t.Helper()
	a := model.Asset{
		Name:              "Projector",
		Type:              model.AssetTypeReturnable,
		TotalQuantity:     total,
		AvailableQuantity: available,
		HREmail:           "hr@acme.io",
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func TestReserveStopsAtZero(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssetRepository(db)
	ctx := context.Background()
	asset := seedAsset(t, db, 2, 2)

	for i := 0; i < 2; i++ {
		ok, err := repo.Reserve(ctx, asset.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := repo.Reserve(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableQuantity)
}

func TestReleaseStopsAtTotal(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssetRepository(db)
	ctx := context.Background()
	asset := seedAsset(t, db, 2, 1)

	ok, err := repo.Release(ctx, asset.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Release(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableQuantity)
}

func TestReleaseReachesSoftDeletedAsset(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssetRepository(db)
	ctx := context.Background()
	asset := seedAsset(t, db, 2, 1)
	require.NoError(t, repo.Delete(ctx, asset.ID))

	ok, err := repo.Release(ctx, asset.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.FindByID(ctx, asset.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRunInTxRollsBackAndNests(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTransactionManager(db)
	repo := NewAssetRepository(db)
	ctx := context.Background()
	asset := seedAsset(t, db, 3, 3)
	boom := errors.New("boom")

	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		assert.True(t, InTx(txCtx))
		if _, err := repo.Reserve(txCtx, asset.ID); err != nil {
			return err
		}
		// inner call joins the outer transaction
		return tm.RunInTx(txCtx, func(inner context.Context) error {
			if _, err := repo.Reserve(inner, asset.ID); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, InTx(ctx))

	got, err := repo.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableQuantity)
}

func TestRequestTransitionIsConditional(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()
	asset := seedAsset(t, db, 1, 1)

	req := model.AssetRequest{AssetID: asset.ID, RequesterEmail: "e1@acme.io", HREmail: "hr@acme.io", Status: model.RequestPending}
	require.NoError(t, repo.Create(ctx, &req))

	moved, err := repo.Transition(ctx, req.ID, model.RequestPending, model.RequestApproved, map[string]interface{}{"processed_by": "hr@acme.io"})
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.Transition(ctx, req.ID, model.RequestPending, model.RequestRejected, nil)
	require.NoError(t, err)
	assert.False(t, moved)

	got, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, got.Status)
	assert.Equal(t, "hr@acme.io", got.ProcessedBy)

	// approved rows do not hold the pending slot
	again := model.AssetRequest{AssetID: asset.ID, RequesterEmail: "e1@acme.io", HREmail: "hr@acme.io", Status: model.RequestPending}
	require.NoError(t, repo.Create(ctx, &again))
	dup := model.AssetRequest{AssetID: asset.ID, RequesterEmail: "e1@acme.io", HREmail: "hr@acme.io", Status: model.RequestPending}
	assert.ErrorIs(t, repo.Create(ctx, &dup), gorm.ErrDuplicatedKey)
}

func TestAffiliationUniqueWhileActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAffiliationRepository(db)
	ctx := context.Background()

	first := model.Affiliation{EmployeeEmail: "e1@acme.io", HREmail: "hr@acme.io", Status: model.AffiliationActive}
	require.NoError(t, repo.Create(ctx, &first))
	second := model.Affiliation{EmployeeEmail: "e1@acme.io", HREmail: "hr@acme.io", Status: model.AffiliationActive}
	assert.ErrorIs(t, repo.Create(ctx, &second), gorm.ErrDuplicatedKey)

	n, err := repo.CountActive(ctx, "hr@acme.io")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
