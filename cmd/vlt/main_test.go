package main_test

import (
	"os"
	"testing"

	"github.com/noro/vault-core/internal/cli"
)

// https://github.com/spf13/cobra/issues/1419
// https://github.com/cli/cli/blob/c0c28622bd62b273b32838dfdfa7d5ffc739eeeb/command/pr_test.go#L55-L67
func TestRootHelp(t *testing.T) {
	if err := cli.MustInitialize(); err != nil {
		t.Fatalf("MustInitialize: %v", err)
	}

	oldArgs := os.Args
	os.Args = []string{"vlt", "--help"}

	t.Cleanup(func() { os.Args = oldArgs })

	if err := cli.Execute(); err != nil {
		t.Fatalf("Execute(--help): %v", err)
	}
}
