package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestInfoString(t *testing.T) {
	out := GetInfo().String()

	assert.True(t, strings.HasPrefix(out, "specdeck "))
	assert.Contains(t, out, "Commit:")
	assert.Contains(t, out, "Platform:")
}
