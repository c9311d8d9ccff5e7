// Package resolver keeps the company, product, work-order and
// operator/process/equipment selections of a fill-work form consistent while
// the user edits any one of them.
//
// A Resolver is owned by one form session. Operations may be called from
// several goroutines; every fetch is tagged with a per-field request id and a
// response is applied only if no newer request for the same field has started
// since, so the last edit always wins.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tzlun5274/mes-system/internal/metrics"
)

// Fields tracked by request ids and reported to error handlers.
const (
	FieldCatalog    = "workorder_list"
	FieldProducts   = "product"
	FieldWorkOrders = "workorder"
	FieldOperators  = "operator"
	FieldProcesses  = "process"
	FieldEquipment  = "equipment"
)

var numericCode = regexp.MustCompile(`^\d+$`)

// State is the current selection. Empty strings mean unset.
type State struct {
	Company         string `yaml:"company,omitempty"`
	Product         string `yaml:"product,omitempty"`
	WorkOrder       string `yaml:"workorder,omitempty"`
	PlannedQuantity *int   `yaml:"planned_quantity,omitempty"`
	Operator        string `yaml:"operator,omitempty"`
	OperatorDisplay string `yaml:"operator_display,omitempty"`
	Process         string `yaml:"process,omitempty"`
	Equipment       string `yaml:"equipment,omitempty"`
}

// Options are the values currently offered by each field.
type Options struct {
	Companies  []string `yaml:"companies"`
	Products   []string `yaml:"products"`
	WorkOrders []string `yaml:"workorders"`
	Operators  []string `yaml:"operators"`
	Processes  []string `yaml:"processes"`
	Equipment  []string `yaml:"equipment"`
}

// Resolver resolves cascading selections for one form.
type Resolver struct {
	src     Source
	cfg     Config
	mode    FormMode
	logger  *zap.Logger
	onError func(field string, err error)
	cache   *catalogCache

	mu         sync.Mutex
	loaded     bool
	state      State
	catalog    []WorkOrder
	companies  []string
	products   []string
	workOrders []WorkOrder
	operators  []string
	processes  []string
	equipment  []string
	seq        map[string]uint64
}

// New creates a resolver reading from src. The catalog is not fetched until
// LoadCatalog is called.
func New(src Source, cfg Config, opts ...Option) (*Resolver, error) {
	if src == nil {
		return nil, errors.New("resolver: source is nil")
	}
	mode, err := ParseFormMode(cfg.FormType)
	if err != nil {
		return nil, err
	}
	if cfg.Fields == (Fields{}) {
		cfg.Fields = DefaultFields()
	}

	r := &Resolver{
		src:    src,
		cfg:    cfg,
		mode:   mode,
		logger: zap.NewNop(),
		seq:    make(map[string]uint64),
	}
	if cfg.CacheCatalog {
		r.cache = newCatalogCache()
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("form_mode", mode.String()))
	return r, nil
}

// Mode returns the form mode derived from the configuration.
func (r *Resolver) Mode() FormMode {
	return r.mode
}

// LoadCatalog fetches every option set in parallel: the work-order catalog
// (which also yields the companies), the products of the selected company,
// and the operators, processes and equipment of the form mode. A field whose
// fetch fails keeps its previous options. The resolver becomes loaded once
// the work-order catalog has been fetched. ErrSuperseded is returned when a
// newer load, such as a Reset, replaced this one before anything was loaded.
func (r *Resolver) LoadCatalog(ctx context.Context) error {
	r.mu.Lock()
	company := r.state.Company
	ids := map[string]uint64{
		FieldCatalog:  r.begin(FieldCatalog),
		FieldProducts: r.begin(FieldProducts),
	}
	loadOperators := !(r.mode.SMT() && r.cfg.Fields.OperatorDisplay != "")
	if loadOperators {
		ids[FieldOperators] = r.begin(FieldOperators)
	}
	ids[FieldProcesses] = r.begin(FieldProcesses)
	ids[FieldEquipment] = r.begin(FieldEquipment)
	r.mu.Unlock()

	formType := r.mode.FormType()
	var (
		g     errgroup.Group
		errMu sync.Mutex
		errs  []error
	)
	run := func(field string, load func() error) {
		g.Go(func() error {
			if err := load(); err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("load %s: %w", field, err))
				errMu.Unlock()
				if !errors.Is(err, ErrSuperseded) {
					r.report(field, err)
				}
			}
			return nil
		})
	}

	run(FieldCatalog, func() error {
		records, err := cached(ctx, r.cache, "workorders", r.src.WorkOrders)
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.settle(FieldCatalog, ids[FieldCatalog], err) {
			if err == nil && !r.loaded {
				return ErrSuperseded
			}
			return err
		}
		r.catalog = slices.Clone(records)
		r.companies = companiesOf(records)
		r.keepSelectedCompany()
		r.setWorkOrderOptions(r.scopedWorkOrders())
		if !r.loaded {
			r.loaded = true
			r.logger.Debug("catalog loaded", zap.Int("workorders", len(records)))
		}
		return nil
	})

	run(FieldProducts, func() error {
		products, err := r.fetchProducts(ctx, company)
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.settle(FieldProducts, ids[FieldProducts], err) {
			r.setProductOptions(products)
		}
		return err
	})

	if loadOperators {
		run(FieldOperators, func() error {
			names, err := cached(ctx, r.cache, "operators:"+formType, func(ctx context.Context) ([]string, error) {
				return r.src.Operators(ctx, formType)
			})
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.settle(FieldOperators, ids[FieldOperators], err) {
				r.operators = slices.Clone(names)
			}
			return err
		})
	}

	run(FieldProcesses, func() error {
		names, err := cached(ctx, r.cache, "processes:"+formType, func(ctx context.Context) ([]string, error) {
			return r.src.Processes(ctx, formType)
		})
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.settle(FieldProcesses, ids[FieldProcesses], err) {
			r.processes = slices.Clone(names)
		}
		return err
	})

	run(FieldEquipment, func() error {
		names, err := cached(ctx, r.cache, "equipment:"+formType, func(ctx context.Context) ([]string, error) {
			return r.src.Equipment(ctx, formType)
		})
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.settle(FieldEquipment, ids[FieldEquipment], err) {
			r.equipment = slices.Clone(names)
		}
		return err
	})

	_ = g.Wait()
	return errors.Join(errs...)
}

// SetCompany selects company. The work-order options become the catalog
// records of that company and the product options are refetched. A selected
// work order outside the company is cleared together with the planned
// quantity. The product selection is left alone.
func (r *Resolver) SetCompany(ctx context.Context, company string) error {
	company = strings.TrimSpace(company)

	r.mu.Lock()
	if !r.loaded {
		r.mu.Unlock()
		return ErrNotLoaded
	}
	r.state.Company = company
	r.keepSelectedCompany()
	r.setWorkOrderOptions(filterRecords(r.catalog, "", company))
	id := r.begin(FieldProducts)
	r.mu.Unlock()

	products, err := r.fetchProducts(ctx, company)

	r.mu.Lock()
	if r.settle(FieldProducts, id, err) {
		r.setProductOptions(products)
	}
	r.mu.Unlock()

	if err != nil {
		r.report(FieldProducts, err)
		return err
	}
	return nil
}

// SetProduct selects product and refetches its work orders, restricted to the
// selected company when ScopeProductByCompany is set. A single match is
// selected and auto-filled; otherwise the work order and planned quantity are
// cleared until the user picks one. A selected work order of another product
// is cleared before the fetch, so a failed lookup cannot leave it behind. An
// empty product restores the company's work orders.
func (r *Resolver) SetProduct(ctx context.Context, product string) error {
	product = strings.TrimSpace(product)

	r.mu.Lock()
	if !r.loaded {
		r.mu.Unlock()
		return ErrNotLoaded
	}
	r.state.Product = product
	if w, ok := r.selectedWorkOrder(); ok && w.Product != product {
		r.clearWorkOrder()
	}
	if product == "" {
		r.setWorkOrderOptions(filterRecords(r.catalog, "", r.state.Company))
		r.clearWorkOrder()
		r.mu.Unlock()
		return nil
	}
	company := ""
	if r.cfg.ScopeProductByCompany {
		company = r.state.Company
	}
	id := r.begin(FieldWorkOrders)
	r.mu.Unlock()

	records, err := cached(ctx, r.cache, "workorders:"+product+"\x00"+company, func(ctx context.Context) ([]WorkOrder, error) {
		all, err := r.src.WorkOrdersByProduct(ctx, product)
		if err != nil {
			return nil, err
		}
		return filterRecords(all, product, company), nil
	})

	r.mu.Lock()
	if r.settle(FieldWorkOrders, id, err) {
		r.setWorkOrderOptions(slices.Clone(records))
		if len(records) == 1 {
			r.state.WorkOrder = records[0].ID
			r.autoFill(records[0])
			metrics.RecordAutoFill("product")
		} else {
			r.clearWorkOrder()
		}
	}
	r.mu.Unlock()

	if err != nil {
		r.report(FieldWorkOrders, err)
		return err
	}
	return nil
}

// SetWorkOrder selects a work order from the current options and fills in its
// company, product and planned quantity. A product or company missing from
// its option set is added. An empty value clears the work order and the
// planned quantity only.
func (r *Resolver) SetWorkOrder(workOrder string) error {
	workOrder = strings.TrimSpace(workOrder)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return ErrNotLoaded
	}
	if workOrder == "" {
		r.begin(FieldWorkOrders)
		r.clearWorkOrder()
		return nil
	}

	i := slices.IndexFunc(r.workOrders, func(w WorkOrder) bool { return w.ID == workOrder })
	if i < 0 {
		return fmt.Errorf("%w: workorder %q", ErrUnknownOption, workOrder)
	}

	// an explicit pick supersedes a product lookup still in flight
	r.begin(FieldWorkOrders)
	r.state.WorkOrder = workOrder
	r.autoFill(r.workOrders[i])
	metrics.RecordAutoFill("workorder")
	return nil
}

// SetEquipment selects equipment. With equipment auto-fill enabled the
// operator, and in SMT mode the operator display, follow the equipment. Where
// the operator comes from its own option list, it only follows equipment
// that list offers.
func (r *Resolver) SetEquipment(equipment string) error {
	equipment = strings.TrimSpace(equipment)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return ErrNotLoaded
	}
	if equipment != "" && !slices.Contains(r.equipment, equipment) {
		return fmt.Errorf("%w: equipment %q", ErrUnknownOption, equipment)
	}

	r.state.Equipment = equipment
	if r.cfg.EnableEquipmentAutoFill {
		display := r.mode.SMT() && r.cfg.Fields.OperatorDisplay != ""
		if display || equipment == "" || slices.Contains(r.operators, equipment) {
			r.state.Operator = equipment
		}
		if display {
			r.state.OperatorDisplay = equipment
		}
		if equipment != "" {
			metrics.RecordAutoFill("equipment")
		}
	}
	return nil
}

// SetOperator selects an operator from the operator options.
func (r *Resolver) SetOperator(operator string) error {
	return r.setListed(FieldOperators, operator)
}

// SetProcess selects a process from the process options.
func (r *Resolver) SetProcess(process string) error {
	return r.setListed(FieldProcesses, process)
}

func (r *Resolver) setListed(field, value string) error {
	value = strings.TrimSpace(value)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return ErrNotLoaded
	}

	options, target := r.operators, &r.state.Operator
	if field == FieldProcesses {
		options, target = r.processes, &r.state.Process
	}
	if value != "" && !slices.Contains(options, value) {
		return fmt.Errorf("%w: %s %q", ErrUnknownOption, field, value)
	}
	*target = value
	return nil
}

// Reset clears the selection and every option set, drops cached lists and
// in-flight responses, and loads the catalog again.
func (r *Resolver) Reset(ctx context.Context) error {
	r.mu.Lock()
	r.loaded = false
	r.state = State{}
	r.catalog = nil
	r.companies = nil
	r.products = nil
	r.workOrders = nil
	r.operators = nil
	r.processes = nil
	r.equipment = nil
	for field := range r.seq {
		r.seq[field]++
	}
	r.mu.Unlock()

	r.InvalidateCache()
	return r.LoadCatalog(ctx)
}

// InvalidateCache drops cached lists so the next fetches hit the source.
func (r *Resolver) InvalidateCache() {
	if r.cache != nil {
		r.cache.invalidate()
	}
}

// Loaded reports whether the work-order catalog has been loaded.
func (r *Resolver) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// State returns a copy of the current selection.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	if s.PlannedQuantity != nil {
		q := *s.PlannedQuantity
		s.PlannedQuantity = &q
	}
	return s
}

// Options returns a copy of the current option sets.
func (r *Resolver) Options() Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.workOrders))
	for i, w := range r.workOrders {
		ids[i] = w.ID
	}
	return Options{
		Companies:  slices.Clone(r.companies),
		Products:   slices.Clone(r.products),
		WorkOrders: ids,
		Operators:  slices.Clone(r.operators),
		Processes:  slices.Clone(r.processes),
		Equipment:  slices.Clone(r.equipment),
	}
}

// GetSelectedValues returns the selection keyed by the configured field ids.
// Fields without an id are omitted; an unset planned quantity is "".
func (r *Resolver) GetSelectedValues() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	quantity := ""
	if r.state.PlannedQuantity != nil {
		quantity = strconv.Itoa(*r.state.PlannedQuantity)
	}

	f := r.cfg.Fields
	values := make(map[string]string, 8)
	for id, v := range map[string]string{
		f.Company:         r.state.Company,
		f.Product:         r.state.Product,
		f.WorkOrder:       r.state.WorkOrder,
		f.PlannedQuantity: quantity,
		f.Operator:        r.state.Operator,
		f.OperatorDisplay: r.state.OperatorDisplay,
		f.Process:         r.state.Process,
		f.Equipment:       r.state.Equipment,
	} {
		if id != "" {
			values[id] = v
		}
	}
	return values
}

// SetValues restores operator, process and equipment values keyed by field
// id. Empty values and values outside the current options are ignored, and no
// auto-fill runs.
func (r *Resolver) SetValues(values map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.cfg.Fields
	apply := func(id string, options []string, target *string) {
		if id == "" {
			return
		}
		if v := values[id]; v != "" && slices.Contains(options, v) {
			*target = v
		}
	}
	apply(f.Operator, r.operators, &r.state.Operator)
	apply(f.Process, r.processes, &r.state.Process)
	apply(f.Equipment, r.equipment, &r.state.Equipment)
}

// autoFill copies a chosen work order into the company, product and planned
// quantity. It is the only writer of those fields during a cascade and never
// calls back into SetProduct or SetCompany. Caller holds r.mu.
func (r *Resolver) autoFill(w WorkOrder) {
	r.state.Company = w.Company
	r.keepSelectedCompany()
	r.state.Product = w.Product
	r.keepSelectedProduct()
	q := w.PlannedQuantity
	r.state.PlannedQuantity = &q
}

// selectedWorkOrder returns the record of the selected work order. Caller holds r.mu.
func (r *Resolver) selectedWorkOrder() (WorkOrder, bool) {
	if r.state.WorkOrder == "" {
		return WorkOrder{}, false
	}
	i := slices.IndexFunc(r.workOrders, func(w WorkOrder) bool { return w.ID == r.state.WorkOrder })
	if i < 0 {
		return WorkOrder{}, false
	}
	return r.workOrders[i], true
}

func (r *Resolver) clearWorkOrder() {
	r.state.WorkOrder = ""
	r.state.PlannedQuantity = nil
}

// setWorkOrderOptions replaces the work-order options, supersedes any lookup
// in flight and drops a selection that is no longer offered.
func (r *Resolver) setWorkOrderOptions(records []WorkOrder) {
	r.begin(FieldWorkOrders)
	r.workOrders = records
	if r.state.WorkOrder != "" && !slices.ContainsFunc(records, func(w WorkOrder) bool { return w.ID == r.state.WorkOrder }) {
		r.clearWorkOrder()
	}
}

func (r *Resolver) setProductOptions(products []string) {
	r.products = slices.Clone(products)
	r.keepSelectedProduct()
}

// keepSelectedProduct adds the selected product to the options when a work
// order referenced a product the current filter does not list.
func (r *Resolver) keepSelectedProduct() {
	if p := r.state.Product; p != "" && !slices.Contains(r.products, p) {
		r.products = append(r.products, p)
	}
}

// keepSelectedCompany does the same for companies, except numeric placeholder codes.
func (r *Resolver) keepSelectedCompany() {
	c := r.state.Company
	if c == "" || numericCode.MatchString(c) || slices.Contains(r.companies, c) {
		return
	}
	r.companies = append(r.companies, c)
}

// scopedWorkOrders returns the catalog records matching the selected product,
// else the selected company, else all of them.
func (r *Resolver) scopedWorkOrders() []WorkOrder {
	if r.state.Product != "" {
		company := ""
		if r.cfg.ScopeProductByCompany {
			company = r.state.Company
		}
		return filterRecords(r.catalog, r.state.Product, company)
	}
	return filterRecords(r.catalog, "", r.state.Company)
}

func (r *Resolver) fetchProducts(ctx context.Context, company string) ([]string, error) {
	return cached(ctx, r.cache, "products:"+company, func(ctx context.Context) ([]string, error) {
		return r.src.Products(ctx, company)
	})
}

// begin issues the next request id for field. Caller holds r.mu.
func (r *Resolver) begin(field string) uint64 {
	r.seq[field]++
	return r.seq[field]
}

// settle records the outcome of a fetch and reports whether its result may be
// applied: it must have succeeded and still be the latest request for field.
// Caller holds r.mu.
func (r *Resolver) settle(field string, id uint64, err error) bool {
	switch {
	case err != nil:
		metrics.RecordResolverFetch(field, metrics.OutcomeError)
		r.logger.Warn("catalog fetch failed, keeping previous options",
			zap.String("field", field),
			zap.Error(err),
		)
		return false
	case r.seq[field] != id:
		metrics.RecordResolverFetch(field, metrics.OutcomeStale)
		r.logger.Debug("discarding superseded response",
			zap.String("field", field),
			zap.Uint64("request_id", id),
			zap.Uint64("latest_id", r.seq[field]),
		)
		return false
	default:
		metrics.RecordResolverFetch(field, metrics.OutcomeApplied)
		return true
	}
}

// report hands a fetch error to the error handler. Must not be called with r.mu held.
func (r *Resolver) report(field string, err error) {
	if r.onError != nil {
		r.onError(field, err)
	}
}

// filterRecords keeps the records matching product and company; an empty
// criterion matches everything.
func filterRecords(records []WorkOrder, product, company string) []WorkOrder {
	out := make([]WorkOrder, 0, len(records))
	for _, w := range records {
		if product != "" && w.Product != product {
			continue
		}
		if company != "" && w.Company != company {
			continue
		}
		out = append(out, w)
	}
	return out
}

// companiesOf returns the sorted distinct company names of records, without
// blanks and numeric placeholder codes.
func companiesOf(records []WorkOrder) []string {
	seen := make(map[string]struct{}, len(records))
	companies := make([]string, 0)
	for _, w := range records {
		c := strings.TrimSpace(w.Company)
		if c == "" || numericCode.MatchString(c) {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		companies = append(companies, c)
	}
	sort.Strings(companies)
	return companies
}
