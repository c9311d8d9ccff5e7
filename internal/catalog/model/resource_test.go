package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormType(t *testing.T) {
	cases := map[string]FormType{
		"":                   FormTypeOperator,
		"operator":           FormTypeOperator,
		"OPERATOR_RD_SAMPLE": FormTypeOperator,
		"smt":                FormTypeSMT,
		" smt_rd_sample ":    FormTypeSMT,
	}
	for in, want := range cases {
		got, err := ParseFormType(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormType("welding")
	assert.EqualError(t, err, `unknown form type "welding"`)
}

func TestWorkOrderStatusValid(t *testing.T) {
	assert.True(t, WorkOrderStatusInProgress.Valid())
	assert.False(t, WorkOrderStatus("shipped").Valid())
}

func TestWorkOrderRecord(t *testing.T) {
	wo := WorkOrder{WorkOrderID: "W1", CompanyName: "Acme", ProductID: "P1", PlannedQuantity: 100}
	assert.Equal(t, WorkOrderRecordDTO{WorkOrderID: "W1", CompanyName: "Acme", ProductID: "P1", PlannedQuantity: 100}, wo.Record())
}
