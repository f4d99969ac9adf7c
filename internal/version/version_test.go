package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "0123456", BuildInfo{GitCommit: "0123456789abcdef"}.ShortCommit())
	assert.Equal(t, "abc", BuildInfo{GitCommit: "abc"}.ShortCommit())
	assert.Equal(t, "", BuildInfo{}.ShortCommit())
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.Platform)
}

func TestPrintBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintBuildInfo(&buf)

	out := buf.String()
	assert.Contains(t, out, "gochip8 - CHIP-8 interpreter")
	assert.Contains(t, out, "Version:     "+Version)
	assert.Contains(t, out, "Platform:    "+runtime.GOOS+"/"+runtime.GOARCH)
}
