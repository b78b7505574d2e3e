package util

import (
	"os"
)

func Getenv(name, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}

type fnWithErrorResult func() error

// IgnoreError calls the passed fn and ignores the error it returns.
// Example `defer util.IgnoreError(file.Close)`
func IgnoreError(fn fnWithErrorResult) {
	_ = fn()
}
