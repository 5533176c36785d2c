// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/tracker"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// TransactionInput is one transaction in a store request. The id is assigned
// server-side and must not be supplied.
type TransactionInput struct {
	Date        string  `json:"date" example:"2026-01-15" doc:"Transaction date"`
	Amount      float64 `json:"amount" example:"-42.50" doc:"Signed amount, negative for spending"`
	Description string  `json:"description" example:"Grocery run" doc:"Free-text description"`
	Category    string  `json:"category,omitempty" example:"food" doc:"Category label, defaults to unknown"`
}

type storeTransactionsInput struct {
	Body struct {
		Transactions []TransactionInput `json:"transactions" doc:"Batch of transactions to store"`
	}
}

type storeTransactionsOutput struct {
	Body struct {
		Stored  int    `json:"stored" doc:"Number of transactions stored"`
		Message string `json:"message" example:"Successfully stored 3 transaction(s)." doc:"Human-readable result"`
	}
}

type queryInput struct {
	Body struct {
		Query string `json:"query" example:"how much did I spend on food" doc:"Natural-language query"`
	}
}

type queryOutput struct {
	Body struct {
		Summary string `json:"summary" doc:"Human-readable query summary"`
	}
}

type listTransactionsInput struct {
	Limit    int    `query:"limit" minimum:"0" doc:"Page size, defaults to 20"`
	Offset   int    `query:"offset" minimum:"0" doc:"Records to skip"`
	Category string `query:"category" doc:"Case-insensitive exact category filter"`
}

type listTransactionsOutput struct {
	Body tracker.Page
}

type deleteTransactionsInput struct {
	Body struct {
		Indices []int `json:"indices,omitempty" doc:"Ledger positions from a current listing"`
		All     bool  `json:"delete_all,omitempty" doc:"Delete every transaction"`
		Confirm bool  `json:"confirm" doc:"Must be true or nothing is deleted"`
	}
}

type deleteTransactionsOutput struct {
	Body struct {
		Message string `json:"message" example:"Deleted 2 transaction(s)." doc:"Human-readable result"`
	}
}

type reconcileOutput struct {
	Body tracker.ReconcileReport
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "store-transactions",
		Method:      http.MethodPost,
		Path:        "/api/v1/transactions",
		Summary:     "Store transactions",
		Description: "Validates a batch of transactions and writes it to the ledger and the search index.",
		Tags:        []string{"transactions"},
	}, s.handleStoreTransactions)

	huma.Register(s.api, huma.Operation{
		OperationID: "query-history",
		Method:      http.MethodPost,
		Path:        "/api/v1/query",
		Summary:     "Query financial history",
		Description: "Runs a semantic search over stored transactions and returns a summary.",
		Tags:        []string{"transactions"},
	}, s.handleQuery)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-transactions",
		Method:      http.MethodGet,
		Path:        "/api/v1/transactions",
		Summary:     "List transactions",
		Description: "Returns a page of transactions in ledger order, each tagged with its position.",
		Tags:        []string{"transactions"},
	}, s.handleListTransactions)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-transactions",
		Method:      http.MethodPost,
		Path:        "/api/v1/transactions/delete",
		Summary:     "Delete transactions",
		Description: "Deletes transactions by ledger position, or all of them. Requires confirm=true.",
		Tags:        []string{"transactions"},
	}, s.handleDeleteTransactions)

	huma.Register(s.api, huma.Operation{
		OperationID: "reconcile",
		Method:      http.MethodPost,
		Path:        "/api/v1/reconcile",
		Summary:     "Reconcile stores",
		Description: "Repairs drift between the ledger and the search index.",
		Tags:        []string{"system"},
	}, s.handleReconcile)
}

func (s *Server) handleStoreTransactions(ctx context.Context, input *storeTransactionsInput) (*storeTransactionsOutput, error) {
	records := make([]ledger.Record, len(input.Body.Transactions))
	for i, t := range input.Body.Transactions {
		records[i] = ledger.Record{
			Date:        t.Date,
			Amount:      t.Amount,
			Description: t.Description,
			Category:    t.Category,
		}
	}

	stored, err := s.tracker.StoreTransactions(ctx, records)
	if err != nil {
		return nil, mapError("storing transactions", err)
	}

	resp := &storeTransactionsOutput{}
	resp.Body.Stored = stored
	resp.Body.Message = storeMessage(stored)
	return resp, nil
}

func (s *Server) handleQuery(ctx context.Context, input *queryInput) (*queryOutput, error) {
	if input.Body.Query == "" {
		return nil, huma.Error400BadRequest("query must not be empty")
	}

	summary, err := s.tracker.QueryFinancialHistory(ctx, input.Body.Query)
	if err != nil {
		return nil, mapError("querying financial history", err)
	}

	resp := &queryOutput{}
	resp.Body.Summary = summary
	return resp, nil
}

func (s *Server) handleListTransactions(ctx context.Context, input *listTransactionsInput) (*listTransactionsOutput, error) {
	page, err := s.tracker.ListTransactions(ctx, tracker.ListOpts{
		Limit:    input.Limit,
		Offset:   input.Offset,
		Category: input.Category,
	})
	if err != nil {
		return nil, mapError("listing transactions", err)
	}

	return &listTransactionsOutput{Body: *page}, nil
}

func (s *Server) handleDeleteTransactions(ctx context.Context, input *deleteTransactionsInput) (*deleteTransactionsOutput, error) {
	message, err := s.tracker.DeleteTransactions(ctx, tracker.DeleteOpts{
		Indices: input.Body.Indices,
		All:     input.Body.All,
		Confirm: input.Body.Confirm,
	})
	if err != nil {
		return nil, mapError("deleting transactions", err)
	}

	resp := &deleteTransactionsOutput{}
	resp.Body.Message = message
	return resp, nil
}

func (s *Server) handleReconcile(ctx context.Context, _ *struct{}) (*reconcileOutput, error) {
	report, err := s.tracker.Reconcile(ctx)
	if err != nil {
		return nil, mapError("reconciling stores", err)
	}

	return &reconcileOutput{Body: *report}, nil
}

func storeMessage(n int) string {
	if n == 0 {
		return "No transactions to store."
	}
	return fmt.Sprintf("Successfully stored %d transaction(s).", n)
}

// mapError translates tracker/store errors to huma HTTP errors using the
// error code taxonomy.
func mapError(msg string, err error) error {
	switch {
	case tallyerr.IsInvalidInput(err):
		return huma.Error400BadRequest(msg, err)
	case tallyerr.IsNotFound(err):
		return huma.Error404NotFound(msg, err)
	case tallyerr.IsUpstreamFailure(err):
		return huma.Error502BadGateway(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
