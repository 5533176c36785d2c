// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/embed"
	"github.com/tally-dev/tally/internal/index"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/server"
	"github.com/tally-dev/tally/internal/tracker"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	dir := t.TempDir()
	ls := ledger.NewStore(filepath.Join(dir, "transactions.json"), nil)

	idx, err := index.NewSQLite(filepath.Join(dir, "index.db"), embed.NewLocal(64))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	svc := tracker.New(ls, idx, nil)

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, svc)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func storeBody(txns ...map[string]any) map[string]any {
	return map[string]any{"transactions": txns}
}

func TestNewRequiresListenAddrAndService(t *testing.T) {
	_, err := server.New(server.Config{}, nil)
	assert.Error(t, err)

	_, err = server.New(server.Config{ListenAddr: "127.0.0.1:0"}, nil)
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
}

func TestStoreAndListRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", storeBody(
		map[string]any{"date": "2026-01-10", "amount": -12.50, "description": "coffee beans", "category": "food"},
		map[string]any{"date": "2026-01-11", "amount": -30.00, "description": "train ticket", "category": "transport"},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored struct {
		Stored  int    `json:"stored"`
		Message string `json:"message"`
	}
	decode(t, rec, &stored)
	assert.Equal(t, 2, stored.Stored)
	assert.Equal(t, "Successfully stored 2 transaction(s).", stored.Message)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page tracker.Page
	decode(t, rec, &page)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, 0, page.Transactions[0].Position)
	assert.Equal(t, "coffee beans", page.Transactions[0].Description)
	assert.False(t, page.HasMore)
}

func TestStoreRejectsMissingDate(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", storeBody(
		map[string]any{"amount": -5.0, "description": "no date"},
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPagination(t *testing.T) {
	srv := newTestServer(t)

	txns := make([]map[string]any, 5)
	for i := range txns {
		txns[i] = map[string]any{"date": "2026-02-01", "amount": 1.0, "description": "item", "category": "misc"}
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", storeBody(txns...))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/transactions?limit=2&offset=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page tracker.Page
	decode(t, rec, &page)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, 2, page.Transactions[0].Position)
	assert.True(t, page.HasMore)
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", storeBody(
		map[string]any{"date": "2026-03-01", "amount": -42.00, "description": "grocery run", "category": "food"},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/query", map[string]any{"query": "grocery run"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Summary string `json:"summary"`
	}
	decode(t, rec, &body)
	assert.Contains(t, body.Summary, "Found 1 relevant transactions.")
	assert.Contains(t, body.Summary, "grocery run")
}

func TestQueryRejectsEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/query", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRequiresConfirm(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", storeBody(
		map[string]any{"date": "2026-04-01", "amount": -1.0, "description": "keep me"},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/transactions/delete", map[string]any{
		"indices": []int{0},
		"confirm": false,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/transactions", nil)
	var page tracker.Page
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Total)
}

func TestDeleteByIndex(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", storeBody(
		map[string]any{"date": "2026-04-01", "amount": -1.0, "description": "first"},
		map[string]any{"date": "2026-04-02", "amount": -2.0, "description": "second"},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/transactions/delete", map[string]any{
		"indices": []int{0},
		"confirm": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Deleted 1 transaction(s).", body.Message)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/transactions", nil)
	var page tracker.Page
	decode(t, rec, &page)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "second", page.Transactions[0].Description)
}

func TestReconcileEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", storeBody(
		map[string]any{"date": "2026-05-01", "amount": 10.0, "description": "salary", "category": "income"},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report tracker.ReconcileReport
	decode(t, rec, &report)
	assert.Equal(t, 1, report.LedgerCount)
	assert.Equal(t, 1, report.IndexCount)
	assert.Zero(t, report.Reinserted)
	assert.Zero(t, report.Removed)
}
