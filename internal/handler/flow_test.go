package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"assetverse/internal/database"
	"assetverse/internal/middleware"
	"assetverse/internal/repository"
	"assetverse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var flowSecret = []byte("flow-secret")

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	tx := repository.NewTransactionManager(db)
	users := repository.NewUserRepository(db)
	assets := repository.NewAssetRepository(db)
	requests := repository.NewRequestRepository(db)
	affiliations := repository.NewAffiliationRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	audit := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(users, flowSecret, time.Hour)
	assetSvc := service.NewAssetService(assets, assignments, users, audit, tx, log)
	affSvc := service.NewAffiliationService(affiliations, users, assignments, audit, tx, log)
	reqSvc := service.NewRequestService(requests, assets, assignments, users, audit, affSvc, tx, log)

	r := gin.New()
	requireAuth := middleware.RequireAuth(flowSecret)
	api := r.Group("")
	NewAuthHandler(authSvc, log).RegisterRoutes(api, requireAuth)
	NewAssetHandler(assetSvc, log).RegisterRoutes(api, requireAuth)
	NewRequestHandler(reqSvc, log).RegisterRoutes(api, requireAuth)
	NewEmployeeHandler(affSvc, assetSvc, log).RegisterRoutes(api, requireAuth)
	NewAuditHandler(service.NewAuditService(audit), log).RegisterRoutes(api, requireAuth)
	return r
}

// call performs a JSON request and decodes the envelope's data into out.
func call(t *testing.T, r *gin.Engine, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		envelope := struct {
			Data json.RawMessage `json:"data"`
		}{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return w.Code
}

func TestRequestFlowOverHTTP(t *testing.T) {
	r := setupRouter(t)

	var hr service.AuthResponse
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/auth/register-hr", "", map[string]string{
		"name": "Hana", "email": "hana@acme.io", "password": "secret1",
		"company_name": "Acme", "company_logo": "https://example.com/logo.png", "date_of_birth": "1988-04-12",
	}, &hr))

	var emp service.AuthResponse
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/auth/register-employee", "", map[string]string{
		"name": "Eli", "email": "eli@acme.io", "password": "secret1", "date_of_birth": "1990-03-01",
	}, &emp))

	// employees cannot manage inventory
	assert.Equal(t, http.StatusForbidden, call(t, r, http.MethodPost, "/api/assets", emp.Token, map[string]interface{}{
		"name": "Pen", "type": "Non-returnable", "quantity": 10,
	}, nil))

	var pen struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/assets", hr.Token, map[string]interface{}{
		"name": "Pen", "type": "Non-returnable", "quantity": 10,
	}, &pen))

	var available struct {
		Total int64 `json:"total"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/assets/available?search=pen", emp.Token, nil, &available))
	assert.Equal(t, int64(1), available.Total)

	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/requests", emp.Token, map[string]string{"asset_id": pen.ID}, &req))
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, http.StatusConflict, call(t, r, http.MethodPost, "/api/requests", emp.Token, map[string]string{"asset_id": pen.ID}, nil))

	var approved service.ApprovalResult
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPut, "/api/requests/"+req.ID+"/approve", hr.Token, nil, &approved))
	assert.True(t, approved.AffiliationCreated)
	assert.Equal(t, http.StatusConflict, call(t, r, http.MethodPut, "/api/requests/"+req.ID+"/approve", hr.Token, nil, nil))

	assert.Equal(t, http.StatusUnprocessableEntity,
		call(t, r, http.MethodPut, "/api/requests/return/"+approved.Assignment.ID.String(), emp.Token, nil, nil))

	var mine []struct {
		AssetName string `json:"asset_name"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/employees/my-assets", emp.Token, nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Pen", mine[0].AssetName)

	var team struct {
		Total int64 `json:"total"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/employees/hr-employees", hr.Token, nil, &team))
	assert.Equal(t, int64(1), team.Total)

	assert.Equal(t, http.StatusOK, call(t, r, http.MethodDelete, "/api/employees/remove/eli@acme.io", hr.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodDelete, "/api/employees/remove/eli@acme.io", hr.Token, nil, nil))

	var logs struct {
		Total int64 `json:"total"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/audit-logs", hr.Token, nil, &logs))
	assert.Equal(t, int64(4), logs.Total)
}

func TestRejectWithoutBody(t *testing.T) {
	r := setupRouter(t)

	var hr, emp service.AuthResponse
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/auth/register-hr", "", map[string]string{
		"name": "Hana", "email": "hana@acme.io", "password": "secret1",
		"company_name": "Acme", "company_logo": "logo", "date_of_birth": "1988-04-12",
	}, &hr))
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/auth/register-employee", "", map[string]string{
		"name": "Eli", "email": "eli@acme.io", "password": "secret1", "date_of_birth": "1990-03-01",
	}, &emp))

	var asset, req struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/assets", hr.Token, map[string]interface{}{
		"name": "Laptop", "type": "Returnable", "quantity": 1,
	}, &asset))
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/requests", emp.Token, map[string]string{"asset_id": asset.ID}, &req))

	var rejected struct {
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPut, "/api/requests/"+req.ID+"/reject", hr.Token, nil, &rejected))
	assert.Equal(t, "rejected", rejected.Status)

	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPut, "/api/requests/not-a-uuid/approve", hr.Token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, r, http.MethodGet, "/api/requests/my-requests", "", nil, nil))
}
