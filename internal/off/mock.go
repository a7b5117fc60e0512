package off

import (
	"context"
	"sync"

	"github.com/campuswell/nutriscan/internal/types"
)

// MockFetcher is a mock implementation for testing.
type MockFetcher struct {
	mu       sync.Mutex
	products map[string]*types.Product
	errs     []error // consumed one per call; nil entries mean success
	calls    int
}

// Ensure MockFetcher implements Fetcher interface
var _ Fetcher = (*MockFetcher)(nil)

// NewMockFetcher creates a mock fetcher with no products.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{products: make(map[string]*types.Product)}
}

// SetProduct registers a product returned for its barcode.
func (m *MockFetcher) SetProduct(barcode string, p *types.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[barcode] = p
}

// QueueError appends an error returned by the next call. Once the queue is
// drained, calls fall through to the product map.
func (m *MockFetcher) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

// Calls returns how many lookups have been issued.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Lookup returns the registered product, a queued error, or not-found.
func (m *MockFetcher) Lookup(ctx context.Context, barcode string) (*types.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	if p, ok := m.products[barcode]; ok {
		return p, nil
	}
	return nil, nil
}
