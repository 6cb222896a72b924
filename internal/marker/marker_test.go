package marker_test

import (
	"strings"
	"testing"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"

	"github.com/agentstation/rulesync/internal/marker"
)

func TestIsGenerated(t *testing.T) {
	assert.True(t, marker.IsGenerated(marker.Sentinel+"\nbody"))
	assert.False(t, marker.IsGenerated("# A hand-written file\n"))
	assert.False(t, marker.IsGenerated(""))
}

func TestIsGeneratedIgnoresLeadingWhitespace(t *testing.T) {
	for _, ws := range []string{" ", "\n", "\t", "\n\n\t  ", "  \r\n"} {
		assert.True(t, marker.IsGenerated(ws+marker.Sentinel+"\nrest"),
			"whitespace prefix %q", ws)
	}
}

func TestIsGeneratedRequiresExactSentinel(t *testing.T) {
	truncated := marker.Sentinel[:len(marker.Sentinel)-1]
	assert.False(t, marker.IsGenerated(truncated+"\n"))

	// A prefix of the sentinel line followed by different text is not a match.
	assert.False(t, marker.IsGenerated("# Generated from elsewhere -- do not edit\n"))
}

func TestHeader(t *testing.T) {
	now := utc.Now()
	header := marker.Header(now)

	lines := strings.Split(strings.TrimRight(header, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, marker.Sentinel, lines[0])
	assert.Contains(t, lines[1], "rulesync sync")
	assert.Contains(t, lines[2], "# Last synced: ")
	assert.True(t, marker.IsGenerated(header))
}
