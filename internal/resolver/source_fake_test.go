package resolver

import (
	"context"
	"sort"
	"sync"
)

// fakeSource serves a fixed catalog. Calls whose key has a gate block until
// the gate is closed, announcing themselves on started first.
type fakeSource struct {
	mu         sync.Mutex
	workOrders []WorkOrder
	products   map[string][]string // overrides the derived product lists, by company
	names      map[string][]string // "operator:smt", "process:operator", ...
	errs       map[string]error    // by method: "workorders", "products", "byproduct", "operator", "process", "equipment"
	gates      map[string]chan struct{}
	started    chan string
	calls      map[string]int
}

func newFakeSource(workOrders ...WorkOrder) *fakeSource {
	return &fakeSource{
		workOrders: workOrders,
		products:   map[string][]string{},
		names:      map[string][]string{},
		errs:       map[string]error{},
		gates:      map[string]chan struct{}{},
		started:    make(chan string, 16),
		calls:      map[string]int{},
	}
}

func (f *fakeSource) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeSource) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSource) enter(ctx context.Context, key, method string) error {
	f.mu.Lock()
	f.calls[key]++
	gate := f.gates[key]
	err := f.errs[method]
	f.mu.Unlock()

	if gate != nil {
		f.started <- key
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeSource) WorkOrders(ctx context.Context) ([]WorkOrder, error) {
	if err := f.enter(ctx, "workorders", "workorders"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]WorkOrder(nil), f.workOrders...), nil
}

func (f *fakeSource) Products(ctx context.Context, company string) ([]string, error) {
	if err := f.enter(ctx, "products:"+company, "products"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[company]; ok {
		return append([]string(nil), p...), nil
	}

	seen := map[string]bool{}
	products := []string{}
	for _, w := range f.workOrders {
		if (company == "" || w.Company == company) && !seen[w.Product] {
			seen[w.Product] = true
			products = append(products, w.Product)
		}
	}
	sort.Strings(products)
	return products, nil
}

func (f *fakeSource) WorkOrdersByProduct(ctx context.Context, product string) ([]WorkOrder, error) {
	if err := f.enter(ctx, "byproduct:"+product, "byproduct"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WorkOrder
	for _, w := range f.workOrders {
		if w.Product == product {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeSource) list(ctx context.Context, kind, formType string) ([]string, error) {
	key := kind + ":" + formType
	if err := f.enter(ctx, key, kind); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names[key]...), nil
}

func (f *fakeSource) Operators(ctx context.Context, formType string) ([]string, error) {
	return f.list(ctx, "operator", formType)
}

func (f *fakeSource) Processes(ctx context.Context, formType string) ([]string, error) {
	return f.list(ctx, "process", formType)
}

func (f *fakeSource) Equipment(ctx context.Context, formType string) ([]string, error) {
	return f.list(ctx, "equipment", formType)
}

func (f *fakeSource) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}
