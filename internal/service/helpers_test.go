package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"assetverse/internal/database"
	"assetverse/internal/model"
	"assetverse/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db *gorm.DB

	users        repository.UserRepository
	assets       repository.AssetRepository
	requests     repository.RequestRepository
	affiliations repository.AffiliationRepository
	assignments  repository.AssignmentRepository
	packages     repository.PackageRepository
	audit        repository.AuditRepository

	affiliationSvc AffiliationService
	requestSvc     RequestService
	assetSvc       AssetService
	packageSvc     PackageService
	authSvc        AuthService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err, "open db")

	// one connection serializes transactions the way row locks do on postgres
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db), "migrate")
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()

	env := &testEnv{
		db:           db,
		users:        repository.NewUserRepository(db),
		assets:       repository.NewAssetRepository(db),
		requests:     repository.NewRequestRepository(db),
		affiliations: repository.NewAffiliationRepository(db),
		assignments:  repository.NewAssignmentRepository(db),
		packages:     repository.NewPackageRepository(db),
		audit:        repository.NewAuditRepository(db),
	}
	tx := repository.NewTransactionManager(db)

	env.affiliationSvc = NewAffiliationService(env.affiliations, env.users, env.assignments, env.audit, tx, log)
	env.requestSvc = NewRequestService(env.requests, env.assets, env.assignments, env.users, env.audit, env.affiliationSvc, tx, log)
	env.assetSvc = NewAssetService(env.assets, env.assignments, env.users, env.audit, tx, log)
	env.packageSvc = NewPackageService(env.packages, env.users, env.affiliations, env.audit, tx, TrustingPaymentVerifier, log)
	env.authSvc = NewAuthService(env.users, []byte("test-secret"), time.Hour)
	return env
}

func (e *testEnv) seedHR(t *testing.T, email string, limit int) model.User {
	t.Helper()
	u := model.User{
		Name:          "HR " + email,
		Email:         email,
		Password:      "hash",
		Role:          model.RoleHR,
		CompanyName:   "Acme",
		CompanyLogo:   "https://example.com/logo.png",
		CapacityLimit: limit,
		Subscription:  model.DefaultSubscription,
	}
	require.NoError(t, e.db.Create(&u).Error, "seed hr")
	return u
}

func (e *testEnv) seedEmployee(t *testing.T, email string, dob *time.Time) model.User {
	t.Helper()
	u := model.User{
		Name:        "Emp " + email,
		Email:       email,
		Password:    "hash",
		Role:        model.RoleEmployee,
		DateOfBirth: dob,
	}
	require.NoError(t, e.db.Create(&u).Error, "seed employee")
	return u
}

func (e *testEnv) seedAsset(t *testing.T, hrEmail, assetType string, qty int) model.Asset {
	t.Helper()
	a, err := e.assetSvc.CreateAsset(context.Background(), hrEmail, CreateAssetRequest{
		Name:     "Laptop",
		Type:     assetType,
		Quantity: qty,
	})
	require.NoError(t, err, "seed asset")
	return a
}

func (e *testEnv) request(t *testing.T, employeeEmail string, asset model.Asset) model.AssetRequest {
	t.Helper()
	r, err := e.requestSvc.CreateRequest(context.Background(), employeeEmail, CreateRequestDTO{AssetID: asset.ID.String()})
	require.NoError(t, err, "create request")
	return r
}

func (e *testEnv) reloadAsset(t *testing.T, asset model.Asset) model.Asset {
	t.Helper()
	var a model.Asset
	require.NoError(t, e.db.Unscoped().First(&a, "id = ?", asset.ID).Error)
	return a
}

func (e *testEnv) reloadRequest(t *testing.T, r model.AssetRequest) model.AssetRequest {
	t.Helper()
	var out model.AssetRequest
	require.NoError(t, e.db.First(&out, "id = ?", r.ID).Error)
	return out
}

func (e *testEnv) reloadUser(t *testing.T, email string) model.User {
	t.Helper()
	var u model.User
	require.NoError(t, e.db.First(&u, "email = ?", email).Error)
	return u
}

func (e *testEnv) count(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}
