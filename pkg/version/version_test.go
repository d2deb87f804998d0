package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/flowlens/pkg/version"
)

func TestString(t *testing.T) {
	version.InitBinaryVersion()

	assert.Contains(t, version.String(), "flowlens ")
	assert.Contains(t, version.String(), "commit: ")
	assert.NotEmpty(t, version.Version)
}
