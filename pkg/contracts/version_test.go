package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, DataFormatVersion, info.DataFormat)
}

func TestGetFullVersionString(t *testing.T) {
	assert.Equal(t, "Tablero de Intervenciones ETV v1.0.0", GetVersionString())
	assert.Contains(t, GetFullVersionString(), "commit: "+GitCommit)
	assert.Contains(t, GetFullVersionString(), runtime.GOOS+"/"+runtime.GOARCH)
}
