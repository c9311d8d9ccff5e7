package model

import (
	"fmt"
	"strings"
)

// FormType selects which shop-floor resources a fill-work form offers.
type FormType string

const (
	FormTypeOperator FormType = "operator"
	FormTypeSMT      FormType = "smt"
)

// ParseFormType accepts a form type or a hosting page identity. RD sample pages
// share the filtering of their base form. An empty value means operator.
func ParseFormType(s string) (FormType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "operator", "operator_rd_sample":
		return FormTypeOperator, nil
	case "smt", "smt_rd_sample":
		return FormTypeSMT, nil
	default:
		return "", fmt.Errorf("unknown form type %q", s)
	}
}

// Operator is a shop-floor operator.
type Operator struct {
	BaseModel
	Name string `gorm:"type:varchar(100);column:name;not null;uniqueIndex" json:"name"`
}

func (o *Operator) TableName() string {
	return "operators"
}

// ProcessName is a production process step that can be reported against.
type ProcessName struct {
	BaseModel
	Name string `gorm:"type:varchar(100);column:name;not null;uniqueIndex" json:"name"`
}

func (p *ProcessName) TableName() string {
	return "process_names"
}

// Equipment is a production machine or line.
type Equipment struct {
	BaseModel
	Name string `gorm:"type:varchar(100);column:name;not null;uniqueIndex" json:"name"`
}

func (e *Equipment) TableName() string {
	return "equipments"
}
