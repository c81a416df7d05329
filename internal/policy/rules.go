package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules is the tunable half of the policy engine. Operators override the
// defaults with a YAML file; the zero-config path uses DefaultRules.
type Rules struct {
	DefaultReturnWindowDays int            `yaml:"default_return_window_days"`
	SellerFaultWindowDays   int            `yaml:"seller_fault_window_days"`
	CategoryWindowDays      map[string]int `yaml:"category_window_days"`
	RefundShippingDefault   bool           `yaml:"refund_shipping_default"`
	EvidenceRequiredReasons []string       `yaml:"evidence_required_reasons"`
	SellerFaultReasons      []string       `yaml:"seller_fault_reasons"`
	NonReturnableCategories []string       `yaml:"non_returnable_categories"`
}

func DefaultRules() Rules {
	return Rules{
		DefaultReturnWindowDays: 30,
		SellerFaultWindowDays:   365,
		CategoryWindowDays: map[string]int{
			"electronics": 15,
			"fashion":     30,
		},
		RefundShippingDefault:   false,
		EvidenceRequiredReasons: []string{"damaged", "defective", "wrong_item"},
		SellerFaultReasons:      []string{"damaged", "defective", "wrong_item", "late_delivery", "not_as_described"},
		NonReturnableCategories: []string{"perishable", "personal_care"},
	}
}

// LoadRules reads the YAML rules file at path, falling back to defaults
// when path is empty. Missing keys keep their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read policy rules: %w", err)
	}
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse policy rules: %w", err)
	}
	return rules, nil
}
