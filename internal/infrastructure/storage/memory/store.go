// Package memory is an in-process implementation of every repository, used by
// tests and by the server when no DATABASE_URL is configured.
//
// Transactions are serialized and snapshot-based: a failed transaction
// restores the state it started from, so the all-or-nothing behavior of the
// Postgres stores holds here as well.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/domain/auth"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/sales"
)

// Store holds all records.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	products map[id.ID]*product.Product
	sales    map[id.ID]*sales.Sale
	saleSeq  map[id.ID]int64
	expenses map[id.ID]*expense.Expense
	users    map[id.ID]*auth.User
	seq      int64

	Numbers *numerator.MemoryGenerator
}

func NewStore() *Store {
	return &Store{
		products: make(map[id.ID]*product.Product),
		sales:    make(map[id.ID]*sales.Sale),
		saleSeq:  make(map[id.ID]int64),
		expenses: make(map[id.ID]*expense.Expense),
		users:    make(map[id.ID]*auth.User),
		Numbers:  numerator.NewMemoryGenerator(),
	}
}

type txKey struct{}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	products map[id.ID]*product.Product
	sales    map[id.ID]*sales.Sale
	saleSeq  map[id.ID]int64
	expenses map[id.ID]*expense.Expense
	users    map[id.ID]*auth.User
	numbers  map[string]int64
}

// Stored values are never mutated in place, so copying the maps is enough.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		products: copyMap(s.products),
		sales:    copyMap(s.sales),
		saleSeq:  copyMap(s.saleSeq),
		expenses: copyMap(s.expenses),
		users:    copyMap(s.users),
		numbers:  s.Numbers.Snapshot(),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.sales = snap.sales
	s.saleSeq = snap.saleSeq
	s.expenses = snap.expenses
	s.users = snap.users
	s.Numbers.Restore(snap.numbers)
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Sales returns the sale repository.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }

// Expenses returns the expense repository.
func (s *Store) Expenses() *ExpenseRepo { return &ExpenseRepo{s: s} }

// Users returns the user repository.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// ProductRepo implements product.Repository.
type ProductRepo struct{ s *Store }

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return apperror.NewDuplicate("product", "id", p.ID.String())
	}
	r.s.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p.Clone(), nil
}

func (r *ProductRepo) Update(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[p.ID]
	if !ok {
		return apperror.NewNotFound("product", p.ID.String())
	}
	if stored.Version != p.Version {
		return apperror.NewConcurrentModification("product", p.ID.String())
	}
	p.Version++
	p.UpdatedAt = now()
	r.s.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, productID id.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[productID]; !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	delete(r.s.products, productID)
	return nil
}

// List returns matching products ordered by name.
func (r *ProductRepo) List(_ context.Context, filter product.ListFilter) ([]*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*product.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if filter.Matches(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *ProductRepo) DecrementStock(_ context.Context, productID id.ID, quantity int, allowNegative bool) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	if !allowNegative && stored.Stock < quantity {
		return nil, apperror.NewInsufficientStock(productID.String(), quantity, stored.Stock)
	}
	p := stored.Clone()
	p.Stock -= quantity
	p.RefreshStatus()
	p.Version++
	p.UpdatedAt = now()
	r.s.products[productID] = p
	return p.Clone(), nil
}

// SaleRepo implements sales.Repository.
type SaleRepo struct{ s *Store }

var _ sales.Repository = (*SaleRepo)(nil)

func (r *SaleRepo) Create(_ context.Context, sale *sales.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sales[sale.ID]; ok {
		return apperror.NewDuplicate("sale", "id", sale.ID.String())
	}
	for _, existing := range r.s.sales {
		if existing.InvoiceID == sale.InvoiceID {
			return apperror.NewDuplicate("sale", "invoice_id", sale.InvoiceID)
		}
	}
	r.s.seq++
	r.s.saleSeq[sale.ID] = r.s.seq
	r.s.sales[sale.ID] = sale.Clone()
	return nil
}

func (r *SaleRepo) GetByID(_ context.Context, saleID id.ID) (*sales.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sale, ok := r.s.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return sale.Clone(), nil
}

// GetForUpdate is GetByID; transactions are already serialized.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *SaleRepo) Update(_ context.Context, sale *sales.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sales[sale.ID]
	if !ok {
		return apperror.NewNotFound("sale", sale.ID.String())
	}
	if stored.Version != sale.Version {
		return apperror.NewConcurrentModification("sale", sale.ID.String())
	}
	sale.Version++
	r.s.sales[sale.ID] = sale.Clone()
	return nil
}

// List returns matching sales newest first.
func (r *SaleRepo) List(_ context.Context, filter sales.ListFilter) ([]*sales.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*sales.Sale, 0, len(r.s.sales))
	for _, sale := range r.s.sales {
		if filter.Matches(sale) {
			out = append(out, sale.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.saleSeq[out[i].ID] > r.s.saleSeq[out[j].ID]
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *SaleRepo) FindLatestOpenByCustomer(ctx context.Context, name string) (*sales.Sale, error) {
	open, err := r.List(ctx, sales.ListFilter{Status: sales.StatusPartialPayment, CustomerName: name, Limit: 1})
	if err != nil || len(open) == 0 {
		return nil, err
	}
	return open[0], nil
}

// LockCustomer is a no-op; transactions are already serialized.
func (r *SaleRepo) LockCustomer(context.Context, string) error { return nil }

// ExpenseRepo implements expense.Repository.
type ExpenseRepo struct{ s *Store }

var _ expense.Repository = (*ExpenseRepo)(nil)

func (r *ExpenseRepo) Create(_ context.Context, e *expense.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[e.ID]; ok {
		return apperror.NewDuplicate("expense", "id", e.ID.String())
	}
	r.s.expenses[e.ID] = e.Clone()
	return nil
}

func (r *ExpenseRepo) GetByID(_ context.Context, expenseID id.ID) (*expense.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.expenses[expenseID]
	if !ok {
		return nil, apperror.NewNotFound("expense", expenseID.String())
	}
	return e.Clone(), nil
}

func (r *ExpenseRepo) Update(_ context.Context, e *expense.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.expenses[e.ID]
	if !ok {
		return apperror.NewNotFound("expense", e.ID.String())
	}
	if stored.Version != e.Version {
		return apperror.NewConcurrentModification("expense", e.ID.String())
	}
	e.Version++
	e.UpdatedAt = now()
	r.s.expenses[e.ID] = e.Clone()
	return nil
}

func (r *ExpenseRepo) Delete(_ context.Context, expenseID id.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[expenseID]; !ok {
		return apperror.NewNotFound("expense", expenseID.String())
	}
	delete(r.s.expenses, expenseID)
	return nil
}

// List returns matching expenses by date, newest first.
func (r *ExpenseRepo) List(_ context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*expense.Expense, 0, len(r.s.expenses))
	for _, e := range r.s.expenses {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UserRepo implements auth.UserRepository.
type UserRepo struct{ s *Store }

var _ auth.UserRepository = (*UserRepo)(nil)

func cloneUser(u *auth.User) *auth.User {
	c := *u
	return &c
}

func (r *UserRepo) Create(_ context.Context, u *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperror.NewDuplicate("user", "email", u.Email)
		}
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *UserRepo) Update(_ context.Context, u *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[u.ID]
	if !ok {
		return apperror.NewNotFound("user", u.ID.String())
	}
	if stored.Version != u.Version {
		return apperror.NewConcurrentModification("user", u.ID.String())
	}
	u.Version++
	u.UpdatedAt = now()
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) Exists(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
