package postgres

import (
	"context"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

var (
	bankAccounts = table[types.BankAccount]{
		name:    "bank_accounts",
		entity:  "bank account",
		columns: "id, description, created_at",
		scan: func(s scanner) (types.BankAccount, error) {
			var a types.BankAccount
			err := s.Scan(&a.ID, &a.Description, &a.CreatedAt)
			return a, err
		},
		id: func(a types.BankAccount) int64 { return a.ID },
	}
	transactions = table[types.Transaction]{
		name:    "transactions",
		entity:  "transaction",
		columns: "id, bank_account_id, description, amount, posted_at",
		scan: func(s scanner) (types.Transaction, error) {
			var t types.Transaction
			err := s.Scan(&t.ID, &t.BankAccountID, &t.Description, &t.Amount, &t.PostedAt)
			return t, err
		},
		id: func(t types.Transaction) int64 { return t.ID },
	}
)

// BankAccountRepo stores bank accounts.
type BankAccountRepo struct {
	repo
}

func (r *BankAccountRepo) Add(ctx context.Context, req types.NewBankAccountRequest) (types.BankAccount, error) {
	vec, err := r.embed(ctx, req.Description)
	if err != nil {
		return types.BankAccount{}, err
	}
	return bankAccounts.one(r.db.QueryRowContext(ctx,
		`INSERT INTO bank_accounts (description, embedding) VALUES ($1, $2) RETURNING `+bankAccounts.columns,
		req.Description, vec))
}

func (r *BankAccountRepo) ids(ctx context.Context, p types.BankAccountSearchParams) ([]int64, error) {
	return r.engine.Search(ctx, bankAccountTarget, search.FromSearchParams(p.SearchParams),
		search.Between("created_at", p.CreatedFrom, p.CreatedTo)...)
}

func (r *BankAccountRepo) Search(ctx context.Context, p types.BankAccountSearchParams) ([]types.BankAccount, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return bankAccounts.fetch(ctx, r.db, ids)
}

func (r *BankAccountRepo) Delete(ctx context.Context, p types.BankAccountSearchParams) ([]types.BankAccount, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return bankAccounts.remove(ctx, r.db, ids)
}

// one returns the single account a composite operates on.
func (r *BankAccountRepo) one(ctx context.Context, p types.BankAccountSearchParams) (types.BankAccount, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return types.BankAccount{}, err
	}
	id, err := first(ids, bankAccounts.entity)
	if err != nil {
		return types.BankAccount{}, err
	}
	return bankAccounts.get(ctx, r.db, id)
}

func (r *BankAccountRepo) Update(ctx context.Context, req types.UpdateBankAccountRequest) (types.BankAccount, error) {
	account, err := r.one(ctx, types.BankAccountSearchParams{SearchParams: req.Selector.SearchParams()})
	if err != nil {
		return types.BankAccount{}, err
	}
	if req.BankAccountUpdates.Description != nil {
		account.Description = *req.BankAccountUpdates.Description
	}
	vec, err := r.embed(ctx, account.Description)
	if err != nil {
		return types.BankAccount{}, err
	}
	return bankAccounts.one(r.db.QueryRowContext(ctx,
		`UPDATE bank_accounts SET description = $1, embedding = $2 WHERE id = $3 RETURNING `+bankAccounts.columns,
		account.Description, vec, account.ID))
}

// TransactionRepo stores transactions. New transactions are added through
// AccountTransactionRepo so that they always belong to an account.
type TransactionRepo struct {
	repo
}

func transactionParams(p types.TransactionSearchParams) search.Params {
	return search.Params{
		IDs:                 p.IDs,
		Query:               p.Query,
		UseRerankingFilter:  p.UseRerankingFilter,
		OrderBy:             p.OrderBy,
		Limit:               p.Limit,
		DistanceThreshold:   p.DistanceThreshold,
		SimilarityThreshold: p.SimilarityThreshold,
	}
}

func (r *TransactionRepo) ids(ctx context.Context, p types.TransactionSearchParams) ([]int64, error) {
	preds := search.Between("posted_at", p.PostedFrom, p.PostedTo)
	if p.BankAccountID != nil {
		preds = append(preds, search.Scope("bank_account_id = ?", *p.BankAccountID))
	}
	return r.engine.Search(ctx, transactionTarget, transactionParams(p), preds...)
}

func (r *TransactionRepo) add(ctx context.Context, accountID int64, req types.NewBankAccountTransactionRequest) (types.Transaction, error) {
	vec, err := r.embed(ctx, req.TransactionDescription)
	if err != nil {
		return types.Transaction{}, err
	}
	return transactions.one(r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (bank_account_id, description, amount, embedding, posted_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW())) RETURNING `+transactions.columns,
		accountID, req.TransactionDescription, req.TransactionAmount, vec, req.TransactionPostedAt))
}

func (r *TransactionRepo) Search(ctx context.Context, p types.TransactionSearchParams) ([]types.Transaction, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return transactions.fetch(ctx, r.db, ids)
}

func (r *TransactionRepo) Delete(ctx context.Context, p types.TransactionSearchParams) ([]types.Transaction, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return transactions.remove(ctx, r.db, ids)
}

func (r *TransactionRepo) Update(ctx context.Context, req types.UpdateTransactionRequest) (types.Transaction, error) {
	ids, err := r.ids(ctx, req.TransactionSearch())
	if err != nil {
		return types.Transaction{}, err
	}
	id, err := first(ids, transactions.entity)
	if err != nil {
		return types.Transaction{}, err
	}
	t, err := transactions.get(ctx, r.db, id)
	if err != nil {
		return types.Transaction{}, err
	}
	u := req.TransactionUpdates
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.PostedAt != nil {
		t.PostedAt = *u.PostedAt
	}

	vec, err := r.embed(ctx, t.Description)
	if err != nil {
		return types.Transaction{}, err
	}
	return transactions.one(r.db.QueryRowContext(ctx,
		`UPDATE transactions SET description = $1, amount = $2, posted_at = $3, embedding = $4 WHERE id = $5 RETURNING `+transactions.columns,
		t.Description, t.Amount, t.PostedAt, vec, id))
}
