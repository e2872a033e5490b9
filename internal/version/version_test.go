package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrings(t *testing.T) {
	Version, GitCommit, BuildDate = "v1.2.0", "abc1234", "2026-10-18"
	t.Cleanup(func() { Version, GitCommit, BuildDate = "dev", "unknown", "unknown" })

	assert.Equal(t, "v1.2.0 (abc1234)", String())
	assert.Equal(t, "v1.2.0 (abc1234) built 2026-10-18 with "+runtime.Version(), Full())
	assert.Equal(t, runtime.Version(), GetInfo().GoVersion)
}
