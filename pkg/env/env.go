package env

import "os"

// Get reads key from the process environment. Unset or blank values fall
// back, so an empty SHOPKIT_* override behaves like an absent one.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
