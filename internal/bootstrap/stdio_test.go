package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEnsureStdio_NoopWhenStdioIsBound checks the common case: a test binary
// always has fds 0/1/2 bound, so EnsureStdio must be a no-op that returns no
// error and doesn't disturb them. Exercising the repair path itself would
// require closing this test binary's own stdio, which would also break the
// test harness's output — left untested for that reason.
func TestEnsureStdio_NoopWhenStdioIsBound(t *testing.T) {
	require.NoError(t, EnsureStdio())
}
