// Package guard switches the process into test mode when imported.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

// testDefaults satisfy the required configuration so app.LoadConfig succeeds
// without a .env file.
var testDefaults = map[string]string{
	"ODYSSEY_TEST_MODE": "1",
	"SESSION_SECRET":    "test-session-secret",
	"CSRF_SECRET":       "test-csrf-secret",
	"JWT_SECRET":        "test-jwt-secret",
}

func init() {
	once.Do(func() {
		for key, value := range testDefaults {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}
