// Package memory is an in-process implementation of store.Store.
//
// Writes made inside InTx are staged on a private copy of the data and
// recorded. On commit the recorded writes are replayed against a fresh copy of
// the live data, which replaces it only if every write succeeds again. A
// transaction therefore commits all or nothing, and concurrent writers made
// outside the transaction are never lost.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/store"
)

type thresholdKey struct {
	shop    string
	year    int
	country string
}

type data struct {
	settings   map[string]store.ShopSettings
	invoices   map[uuid.UUID]store.Invoice
	byOrder    map[string]uuid.UUID
	thresholds map[thresholdKey]store.OssThreshold
	sales      []store.OssSale
}

func newData() *data {
	return &data{
		settings:   make(map[string]store.ShopSettings),
		invoices:   make(map[uuid.UUID]store.Invoice),
		byOrder:    make(map[string]uuid.UUID),
		thresholds: make(map[thresholdKey]store.OssThreshold),
	}
}

func (d *data) clone() *data {
	c := &data{
		settings:   make(map[string]store.ShopSettings, len(d.settings)),
		invoices:   make(map[uuid.UUID]store.Invoice, len(d.invoices)),
		byOrder:    make(map[string]uuid.UUID, len(d.byOrder)),
		thresholds: make(map[thresholdKey]store.OssThreshold, len(d.thresholds)),
		sales:      append([]store.OssSale(nil), d.sales...),
	}
	for k, v := range d.settings {
		c.settings[k] = v
	}
	for k, v := range d.invoices {
		c.invoices[k] = v
	}
	for k, v := range d.byOrder {
		c.byOrder[k] = v
	}
	for k, v := range d.thresholds {
		c.thresholds[k] = v
	}
	return c
}

// Store is a mutex-guarded store.Store. The zero value is not usable; call New.
type Store struct {
	mu   *sync.Mutex
	live **data

	// staged is non-nil inside a transaction.
	staged *data
	redo   []func(*data) error

	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	d := newData()
	return &Store{
		mu:   &sync.Mutex{},
		live: &d,
		now:  time.Now,
	}
}

// WithClock overrides the clock used for timestamps. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) view(fn func(*data) error) error {
	if s.staged != nil {
		return fn(s.staged)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(*s.live)
}

// update applies a write. fn must be deterministic: inside a transaction it
// runs twice, once when staged and once on commit.
func (s *Store) update(fn func(*data) error) error {
	if s.staged != nil {
		if err := fn(s.staged); err != nil {
			return err
		}
		s.redo = append(s.redo, fn)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(*s.live)
}

// InTx implements store.Store.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	if s.staged != nil {
		return fn(s)
	}

	s.mu.Lock()
	tx := &Store{
		mu:     s.mu,
		live:   s.live,
		staged: (*s.live).clone(),
		now:    s.now,
	}
	s.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := (*s.live).clone()
	for _, op := range tx.redo {
		if err := op(next); err != nil {
			return err
		}
	}
	*s.live = next
	return nil
}

// GetShopSettings implements store.Store.
func (s *Store) GetShopSettings(_ context.Context, shop string) (store.ShopSettings, error) {
	var out store.ShopSettings
	err := s.view(func(d *data) error {
		v, ok := d.settings[shop]
		if !ok {
			return store.ErrNotFound
		}
		out = v
		return nil
	})
	return out, err
}

// CreateShopSettings implements store.Store. Creating settings for a shop
// that already has them returns the existing row.
func (s *Store) CreateShopSettings(_ context.Context, in store.ShopSettings) (store.ShopSettings, error) {
	now := s.now().UTC()
	var out store.ShopSettings
	err := s.update(func(d *data) error {
		if v, ok := d.settings[in.Shop]; ok {
			out = v
			return nil
		}
		v := in
		v.CreatedAt = now
		v.UpdatedAt = now
		d.settings[in.Shop] = v
		out = v
		return nil
	})
	return out, err
}

// UpdateShopSettings implements store.Store.
func (s *Store) UpdateShopSettings(_ context.Context, in store.ShopSettings) (store.ShopSettings, error) {
	now := s.now().UTC()
	var out store.ShopSettings
	err := s.update(func(d *data) error {
		cur, ok := d.settings[in.Shop]
		if !ok {
			return store.ErrNotFound
		}
		v := in
		v.CurrentYear = cur.CurrentYear
		v.CurrentSequence = cur.CurrentSequence
		v.CreatedAt = cur.CreatedAt
		v.UpdatedAt = now
		d.settings[in.Shop] = v
		out = v
		return nil
	})
	return out, err
}

// NextSequence implements store.Store.
func (s *Store) NextSequence(_ context.Context, shop string, year int) (store.SequenceState, error) {
	now := s.now().UTC()
	var out store.SequenceState
	err := s.update(func(d *data) error {
		v, ok := d.settings[shop]
		if !ok {
			return store.ErrNotFound
		}
		if v.CurrentYear != year {
			v.CurrentYear = year
			v.CurrentSequence = 0
		}
		v.CurrentSequence++
		v.UpdatedAt = now
		d.settings[shop] = v
		out = store.SequenceState{
			Year:     v.CurrentYear,
			Sequence: v.CurrentSequence,
			Prefix:   v.InvoicePrefix,
			Format:   v.InvoiceFormat,
		}
		return nil
	})
	return out, err
}

// FindInvoiceByOrderID implements store.Store.
func (s *Store) FindInvoiceByOrderID(_ context.Context, orderID string) (store.Invoice, error) {
	var out store.Invoice
	err := s.view(func(d *data) error {
		id, ok := d.byOrder[orderID]
		if !ok {
			return store.ErrNotFound
		}
		out = copyInvoice(d.invoices[id])
		return nil
	})
	return out, err
}

// GetInvoice implements store.Store.
func (s *Store) GetInvoice(_ context.Context, id uuid.UUID) (store.Invoice, error) {
	var out store.Invoice
	err := s.view(func(d *data) error {
		v, ok := d.invoices[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyInvoice(v)
		return nil
	})
	return out, err
}

// ListInvoices implements store.Store. Invoices are returned newest first.
func (s *Store) ListInvoices(_ context.Context, shop string, limit, offset int) ([]store.Invoice, int, error) {
	var (
		out   []store.Invoice
		total int
	)
	err := s.view(func(d *data) error {
		var all []store.Invoice
		for _, v := range d.invoices {
			if v.Shop == shop {
				all = append(all, v)
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].InvoiceNumber > all[j].InvoiceNumber
			}
			return all[i].CreatedAt.After(all[j].CreatedAt)
		})
		total = len(all)
		if offset >= total {
			return nil
		}
		end := offset + limit
		if limit <= 0 || end > total {
			end = total
		}
		for _, v := range all[offset:end] {
			out = append(out, copyInvoice(v))
		}
		return nil
	})
	return out, total, err
}

// CreateInvoiceWithLines implements store.Store.
func (s *Store) CreateInvoiceWithLines(_ context.Context, in store.Invoice) (store.Invoice, error) {
	inv := copyInvoice(in)
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.now().UTC()
	}
	for i := range inv.Lines {
		if inv.Lines[i].ID == uuid.Nil {
			inv.Lines[i].ID = uuid.New()
		}
		inv.Lines[i].InvoiceID = inv.ID
		inv.Lines[i].Position = i
	}

	err := s.update(func(d *data) error {
		if _, ok := d.byOrder[inv.OrderID]; ok {
			return store.ErrDuplicateOrder
		}
		for _, v := range d.invoices {
			if v.Shop == inv.Shop && v.InvoiceNumber == inv.InvoiceNumber {
				return fmt.Errorf("%w: %s", store.ErrDuplicateNumber, inv.InvoiceNumber)
			}
		}
		d.invoices[inv.ID] = inv
		d.byOrder[inv.OrderID] = inv.ID
		return nil
	})
	if err != nil {
		return store.Invoice{}, err
	}
	return copyInvoice(inv), nil
}

// AttachInvoiceDocument implements store.Store.
func (s *Store) AttachInvoiceDocument(_ context.Context, id uuid.UUID, path, url string) error {
	return s.update(func(d *data) error {
		v, ok := d.invoices[id]
		if !ok {
			return store.ErrNotFound
		}
		v.PDFPath = path
		v.PDFURL = url
		d.invoices[id] = v
		return nil
	})
}

// GetOssThreshold implements store.Store.
func (s *Store) GetOssThreshold(_ context.Context, shop string, year int, countryCode string) (store.OssThreshold, error) {
	var out store.OssThreshold
	err := s.view(func(d *data) error {
		v, ok := d.thresholds[thresholdKey{shop, year, countryCode}]
		if !ok {
			return store.ErrNotFound
		}
		out = v
		return nil
	})
	return out, err
}

// EnsureOssThreshold implements store.Store.
func (s *Store) EnsureOssThreshold(_ context.Context, shop string, year int, countryCode string) (store.OssThreshold, error) {
	id := uuid.New()
	now := s.now().UTC()
	var out store.OssThreshold
	err := s.update(func(d *data) error {
		key := thresholdKey{shop, year, countryCode}
		if v, ok := d.thresholds[key]; ok {
			out = v
			return nil
		}
		v := store.OssThreshold{
			ID:            id,
			Shop:          shop,
			Year:          year,
			CountryCode:   countryCode,
			TotalSalesHT:  decimal.Zero,
			TotalSalesTTC: decimal.Zero,
			LastUpdated:   now,
		}
		d.thresholds[key] = v
		out = v
		return nil
	})
	return out, err
}

// UpsertOssThreshold implements store.Store.
func (s *Store) UpsertOssThreshold(_ context.Context, delta store.ThresholdDelta) (store.OssThreshold, error) {
	if delta.ID == uuid.Nil {
		delta.ID = uuid.New()
	}
	var out store.OssThreshold
	err := s.update(func(d *data) error {
		key := thresholdKey{delta.Shop, delta.Year, delta.CountryCode}
		v, ok := d.thresholds[key]
		if !ok {
			v = store.OssThreshold{
				ID:            delta.ID,
				Shop:          delta.Shop,
				Year:          delta.Year,
				CountryCode:   delta.CountryCode,
				TotalSalesHT:  decimal.Zero,
				TotalSalesTTC: decimal.Zero,
			}
		}
		v.TotalSalesHT = v.TotalSalesHT.Add(delta.TotalHT)
		v.TotalSalesTTC = v.TotalSalesTTC.Add(delta.TotalTTC)
		v.OrderCount++
		v.ThresholdReached = v.TotalSalesTTC.GreaterThanOrEqual(delta.Threshold)
		if v.ThresholdReached && v.ThresholdDate == nil {
			at := delta.At
			v.ThresholdDate = &at
		}
		v.LastUpdated = delta.At
		d.thresholds[key] = v
		out = v
		return nil
	})
	return out, err
}

// ListOssThresholds implements store.Store. Rows are ordered by country code.
func (s *Store) ListOssThresholds(_ context.Context, shop string, year int) ([]store.OssThreshold, error) {
	var out []store.OssThreshold
	err := s.view(func(d *data) error {
		for k, v := range d.thresholds {
			if k.shop == shop && k.year == year {
				out = append(out, v)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CountryCode < out[j].CountryCode })
		return nil
	})
	return out, err
}

// CreateOssSale implements store.Store.
func (s *Store) CreateOssSale(_ context.Context, in store.OssSale) (store.OssSale, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	err := s.update(func(d *data) error {
		d.sales = append(d.sales, in)
		return nil
	})
	return in, err
}

// ListOssSales implements store.Store. Sales are ordered by sale date.
func (s *Store) ListOssSales(_ context.Context, shop string, year, quarter int) ([]store.OssSale, error) {
	var out []store.OssSale
	err := s.view(func(d *data) error {
		for _, v := range d.sales {
			if v.Shop == shop && v.Year == year && v.Quarter == quarter {
				out = append(out, v)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].SaleDate.Before(out[j].SaleDate) })
		return nil
	})
	return out, err
}

func copyInvoice(v store.Invoice) store.Invoice {
	v.Lines = append([]store.InvoiceLine(nil), v.Lines...)
	return v
}

var _ store.Store = (*Store)(nil)
