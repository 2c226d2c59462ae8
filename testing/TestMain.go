package testing

import (
	"os"
	stdtesting "testing"

	_ "github.com/odyssey-erp/odyssey-admin/internal/testing/guard"
)

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
