package api

import (
	"fmt"
	"sort"
	"strings"
)

// PlanSections lists the sections of the handler plan and whether they are keyed.
var PlanSections = map[string]bool{
	"pre":                      false,
	"post":                     false,
	"events":                   true,
	"calls":                    true,
	"evmLogs":                  true,
	"contractsContractEmitted": true,
}

// ValidatePlanQueryParams checks that the section exists and that a name is only given
// for keyed sections.
func ValidatePlanQueryParams(params PlanQueryParams) error {
	if params.Section == "" {
		if params.Name != "" {
			return fmt.Errorf("name '%s' given without a section", params.Name)
		}
		return nil
	}

	keyed, exists := PlanSections[params.Section]
	if !exists {
		return fmt.Errorf("invalid section '%s'. Valid sections are: %s",
			params.Section, strings.Join(validSections(), ", "))
	}
	if !keyed && params.Name != "" {
		return fmt.Errorf("section '%s' has no keys", params.Section)
	}
	return nil
}

func validSections() []string {
	sections := make([]string, 0, len(PlanSections))
	for s := range PlanSections {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	return sections
}
