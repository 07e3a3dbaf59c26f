package main

import "fmt"

const (
	roleDriver    = "driver"
	rolePassenger = "passenger"
)

func validateRole(role string) error {
	switch role {
	case roleDriver, rolePassenger:
		return nil
	default:
		return fmt.Errorf("unknown role %q, want %s or %s", role, roleDriver, rolePassenger)
	}
}

// withRole copies existing custom claims and sets "role". Other claims survive.
func withRole(existing map[string]interface{}, role string) map[string]interface{} {
	out := make(map[string]interface{}, len(existing)+1)
	for k, v := range existing {
		out[k] = v
	}
	out["role"] = role
	return out
}
