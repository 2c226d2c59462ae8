package app

import (
	"os"
	"sync"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the process runs under go test. Entry points skip
// startup, the request logger stays quiet and .env files are ignored.
func InTestMode() bool {
	return testMode()
}
