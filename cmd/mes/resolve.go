package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tzlun5274/mes-system/internal/catalogclient"
	"github.com/tzlun5274/mes-system/internal/resolver"
)

var resolveFlags struct {
	formType    string
	company     string
	product     string
	workOrder   string
	equipment   string
	autoFill    bool
	showOptions bool
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve fill-work form selections against a running server",
	Long: `Loads the catalog from RESOLVER_BASE_URL, applies the given selections in
the order company, product, work order, equipment, and prints the resulting
form values as YAML.

Example:
  mes resolve --form-type smt --company Acme --product PCB-100`,
	RunE: runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.StringVar(&resolveFlags.formType, "form-type", "", "operator, smt, operator_rd_sample or smt_rd_sample (default RESOLVER_FORM_TYPE)")
	f.StringVar(&resolveFlags.company, "company", "", "company name")
	f.StringVar(&resolveFlags.product, "product", "", "product id")
	f.StringVar(&resolveFlags.workOrder, "workorder", "", "work order id")
	f.StringVar(&resolveFlags.equipment, "equipment", "", "equipment name")
	f.BoolVar(&resolveFlags.autoFill, "equipment-autofill", false, "fill the operator from the equipment (default RESOLVER_EQUIPMENT_AUTOFILL)")
	f.BoolVar(&resolveFlags.showOptions, "show-options", false, "also print the options offered by each field")
}

func runResolve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rc := resolver.DefaultConfig()
	rc.FormType = cfg.Resolver.FormType
	if resolveFlags.formType != "" {
		rc.FormType = resolveFlags.formType
	}
	rc.EnableEquipmentAutoFill = cfg.Resolver.EnableEquipmentAutoFill
	if cmd.Flags().Changed("equipment-autofill") {
		rc.EnableEquipmentAutoFill = resolveFlags.autoFill
	}
	rc.CacheCatalog = cfg.Resolver.CacheCatalog

	client := catalogclient.NewFromConfig(cfg.Resolver, logger)
	if _, err := client.FetchCSRFToken(ctx); err != nil {
		logger.Warn("continuing without csrf token", zap.Error(err))
	}

	r, err := resolver.New(client, rc,
		resolver.WithLogger(logger),
		resolver.WithErrorHandler(func(field string, err error) {
			logger.Warn("failed to load options", zap.String("field", field), zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}
	if err := r.LoadCatalog(ctx); err != nil && !r.Loaded() {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	steps := []struct {
		value string
		apply func() error
	}{
		{resolveFlags.company, func() error { return r.SetCompany(ctx, resolveFlags.company) }},
		{resolveFlags.product, func() error { return r.SetProduct(ctx, resolveFlags.product) }},
		{resolveFlags.workOrder, func() error { return r.SetWorkOrder(resolveFlags.workOrder) }},
		{resolveFlags.equipment, func() error { return r.SetEquipment(resolveFlags.equipment) }},
	}
	for _, step := range steps {
		if step.value == "" {
			continue
		}
		if err := step.apply(); err != nil {
			return err
		}
	}

	out := struct {
		Values  map[string]string `yaml:"values"`
		Options *resolver.Options `yaml:"options,omitempty"`
	}{Values: r.GetSelectedValues()}
	if resolveFlags.showOptions {
		opts := r.Options()
		out.Options = &opts
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(out)
}
