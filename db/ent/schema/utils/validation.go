package utils

import "fmt"

// EnumValidator returns a field validator that accepts only the listed
// values. The lead/run status and sector columns use it so the schema rejects
// anything outside the state model.
func EnumValidator(allowed ...string) func(string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(s string) error {
		if _, ok := set[s]; ok {
			return nil
		}
		return fmt.Errorf("value %q not in allowed set", s)
	}
}
