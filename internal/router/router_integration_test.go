//go:build integration

package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dealerstock/internal/config"
	"dealerstock/internal/dto"
	"dealerstock/internal/infra"
	"dealerstock/internal/router"
	"dealerstock/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// blobs is an in-memory object store standing in for MinIO.
type blobs struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (b *blobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.m[key] = data
	b.mu.Unlock()
	return nil
}

func (b *blobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.m[key]
	if !ok {
		return nil, infra.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *blobs) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.m, key)
	b.mu.Unlock()
	return nil
}

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *api) ok(status int, method, path, token string, body, out any) {
	a.t.Helper()
	w := a.do(method, path, token, body)
	require.Equal(a.t, status, w.Code, "%s %s: %s", method, path, w.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out))
	}
}

func (a *api) login(identifier, password string) string {
	var resp dto.LoginResponse
	a.ok(http.StatusOK, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Identifier: identifier, Password: password}, &resp)
	return resp.AccessToken
}

func startStack(t *testing.T) (*config.Config, *api, *router.Services, *redis.Client, *blobs) {
	t.Helper()
	ctx := context.Background()

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dealerstock"),
		tcpostgres.WithUsername("dealerstock"),
		tcpostgres.WithPassword("dealerstock"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rc, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Terminate(ctx) })
	redisURL, err := rc.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		RateLimitPerMinute: 1000,
		DatabaseURL:        dsn,
		RedisURL:           redisURL,
		JWTSecret:          "integration_secret_at_least_32_chars",
		JWTExpirationHours: 1,
		JWTRefreshHours:    2,
		BarcodeMaxAttempts: 5,
		MaxBatchQuantity:   50,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	storage, err := infra.NewObjectStorage(ctx, infra.StorageConfig{}, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	require.NoError(t, err)

	store := &blobs{m: map[string][]byte{}}
	svc := router.NewServices(cfg, db, store, worker.NewDispatcher(rdb))

	workerCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	exports := worker.NewExportWorker(svc.Reports, store)
	worker.StartWorkerPool(workerCtx, rdb, map[string]worker.Handler{worker.JobExport: exports.Handle}, 1)

	return cfg, &api{t: t, engine: router.New(cfg, db, rdb, storage, svc)}, svc, rdb, store
}

func TestLifecycleOverHTTP(t *testing.T) {
	_, a, svc, _, _ := startStack(t)
	ctx := context.Background()

	_, err := svc.Accounts.SeedAdmin(ctx, dto.CreateAccountRequest{Username: "root", FirstName: "Root", Password: "root-pass"})
	require.NoError(t, err)
	adminTok := a.login("root", "root-pass")

	health := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, health.Code, health.Body.String())

	// Accounts
	var dealer, sub dto.AccountResponse
	a.ok(http.StatusCreated, http.MethodPost, "/v1/dealers", adminTok,
		dto.CreateAccountRequest{Username: "north", Phone: "0711222333", FirstName: "North Pumps", Password: "dealer-pass"}, &dealer)
	dealerTok := a.login("0711222333", "dealer-pass")
	a.ok(http.StatusCreated, http.MethodPost, "/v1/sub-dealers", dealerTok,
		dto.CreateAccountRequest{Username: "north-shop", Phone: "0711222444", FirstName: "Shop", Password: "sub-pass"}, &sub)
	subTok := a.login("north-shop", "sub-pass")

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/dealers", dealerTok, dto.CreateAccountRequest{}).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/v1/sales", "", nil).Code)

	// Catalog
	var cat dto.CategoryResponse
	a.ok(http.StatusCreated, http.MethodPost, "/v1/categories", adminTok, dto.CategoryRequest{Name: "Borehole pumps"}, &cat)

	var units []dto.UnitResponse
	a.ok(http.StatusCreated, http.MethodPost, "/v1/units", adminTok, dto.CreateUnitsRequest{
		ProductName: "V6 borehole pump", CategoryID: cat.ID, SerialNumber: "BH-77",
		Quantity: 3, Power: "5.5/7.5", Warranty: "12", WarrantyUnit: "months",
	}, &units)
	require.Len(t, units, 3)
	assert.Equal(t, "BH-77-001", units[0].SerialNumber)
	assert.Equal(t, "unassigned", units[0].Placement.State)

	// Distribution
	a.ok(http.StatusOK, http.MethodPost, "/v1/assignments/dealer", adminTok,
		dto.AssignToDealerRequest{Code: "BH-77-001", DealerID: dealer.ID}, nil)
	a.ok(http.StatusOK, http.MethodPost, "/v1/assignments/dealer/bulk", adminTok,
		dto.BulkAssignRequest{UnitIDs: []string{units[1].ID}, DealerID: dealer.ID}, nil)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/v1/assignments/dealer/bulk", adminTok,
		dto.BulkAssignRequest{UnitIDs: []string{units[1].ID, units[2].ID}, DealerID: dealer.ID}).Code)
	a.ok(http.StatusOK, http.MethodPost, "/v1/assignments/sub-dealer", dealerTok,
		dto.AssignToSubDealerRequest{Code: units[1].Barcode, SubDealerID: sub.ID}, nil)

	var mine dto.UnitListResponse
	a.ok(http.StatusOK, http.MethodGet, "/v1/sub-dealers/me/units", subTok, nil, &mine)
	assert.EqualValues(t, 1, mine.Total)

	// Sales and replacement
	var sale dto.SaleResponse
	a.ok(http.StatusCreated, http.MethodPost, "/v1/sales", subTok, dto.SellRequest{Code: "BH-77-002"}, &sale)
	assert.Equal(t, "sub_dealer", sale.SoldBy)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/v1/sales", dealerTok, dto.SellRequest{Code: "BH-77-002"}).Code)

	var replaced dto.ReplaceResponse
	a.ok(http.StatusOK, http.MethodPost, "/v1/sales/"+sale.ID+"/replace", adminTok,
		dto.ReplaceRequest{ReplacementCode: "BH-77-003"}, &replaced)
	assert.Equal(t, "BH-77-003", replaced.Sale.Unit.SerialNumber)
	assert.Equal(t, sale.WarrantyEndDate.Unix(), replaced.Sale.WarrantyEndDate.Unix())

	var history []json.RawMessage
	a.ok(http.StatusOK, http.MethodGet, "/v1/units/"+units[1].ID+"/history", adminTok, nil, &history)
	assert.Len(t, history, 4)

	var report []dto.DealerSalesResponse
	a.ok(http.StatusOK, http.MethodGet, "/v1/reports/dealer-sales", adminTok, nil, &report)
	require.Len(t, report, 1)
	assert.Equal(t, dealer.ID, *report[0].DealerID)
	assert.EqualValues(t, 1, report[0].UnitsSold)

	cert := a.do(http.MethodGet, "/v1/sales/"+replaced.Sale.ID+"/certificate", subTok, nil)
	assert.Equal(t, http.StatusOK, cert.Code)
	assert.Equal(t, "application/pdf", cert.Header().Get("Content-Type"))
}

func TestExportOverHTTP(t *testing.T) {
	_, a, svc, _, _ := startStack(t)
	_, err := svc.Accounts.SeedAdmin(context.Background(), dto.CreateAccountRequest{Username: "root", FirstName: "Root", Password: "root-pass"})
	require.NoError(t, err)
	adminTok := a.login("root", "root-pass")

	var queued dto.ExportQueuedResponse
	a.ok(http.StatusAccepted, http.MethodPost, "/v1/reports/exports", adminTok, dto.ExportRequest{Kind: "sales"}, &queued)

	require.Eventually(t, func() bool {
		return a.do(http.MethodGet, "/v1/reports/"+queued.Key, adminTok, nil).Code == http.StatusOK
	}, 15*time.Second, 200*time.Millisecond)

	assert.Equal(t, http.StatusUnprocessableEntity,
		a.do(http.MethodPost, "/v1/reports/exports", adminTok, map[string]string{"kind": "invoices"}).Code)
}
