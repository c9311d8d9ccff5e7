package resolver

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FormMode is derived once from the hosting page and decides which process
// and equipment entries a form offers.
type FormMode int

const (
	ModeOperator FormMode = iota
	ModeSMT
	ModeOperatorSample
	ModeSMTSample
)

// ParseFormMode accepts a form type ("operator", "smt") or a page identity
// ("operator_rd_sample", "smt_rd_sample"). An empty value means operator.
func ParseFormMode(s string) (FormMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "operator":
		return ModeOperator, nil
	case "smt":
		return ModeSMT, nil
	case "operator_rd_sample":
		return ModeOperatorSample, nil
	case "smt_rd_sample":
		return ModeSMTSample, nil
	}
	return ModeOperator, fmt.Errorf("unknown form type %q", s)
}

// SMT reports whether the mode lists SMT-tagged entries only. RD sample forms
// filter like their base form.
func (m FormMode) SMT() bool {
	return m == ModeSMT || m == ModeSMTSample
}

// FormType is the form_type value sent to the catalog API.
func (m FormMode) FormType() string {
	if m.SMT() {
		return "smt"
	}
	return "operator"
}

func (m FormMode) String() string {
	switch m {
	case ModeSMT:
		return "smt"
	case ModeOperatorSample:
		return "operator_rd_sample"
	case ModeSMTSample:
		return "smt_rd_sample"
	default:
		return "operator"
	}
}

// Fields holds the form field id bound to each selection. An empty id means
// the form has no such field.
type Fields struct {
	Company         string
	Product         string
	WorkOrder       string
	PlannedQuantity string
	Operator        string
	OperatorDisplay string
	Process         string
	Equipment       string
}

// DefaultFields returns the field ids used by the fill-work templates.
func DefaultFields() Fields {
	return Fields{
		Company:         "company_name",
		Product:         "product_id",
		WorkOrder:       "workorder",
		PlannedQuantity: "planned_quantity",
		Operator:        "operator",
		OperatorDisplay: "operator_display",
		Process:         "process",
		Equipment:       "equipment",
	}
}

// Config configures one resolver instance.
type Config struct {
	// FormType is "operator", "smt" or an RD sample page identity.
	FormType string
	// EnableEquipmentAutoFill copies the chosen equipment into the operator.
	EnableEquipmentAutoFill bool
	// ScopeProductByCompany intersects product matches with the selected company.
	ScopeProductByCompany bool
	// CacheCatalog keeps fetched lists until InvalidateCache or Reset.
	CacheCatalog bool
	Fields       Fields
}

// DefaultConfig returns an operator form configuration.
func DefaultConfig() Config {
	return Config{
		FormType:              "operator",
		ScopeProductByCompany: true,
		Fields:                DefaultFields(),
	}
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithErrorHandler registers fn to be told about failed fetches, typically to
// show a transient banner. fn is called without the resolver lock held.
func WithErrorHandler(fn func(field string, err error)) Option {
	return func(r *Resolver) {
		r.onError = fn
	}
}
