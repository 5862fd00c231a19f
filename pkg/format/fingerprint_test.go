package format_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/format"
)

func TestFingerprintRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, format.CurrentFingerprint.WriteTo(&buf))

	got, err := format.ReadFingerprint(&buf)
	require.NoError(t, err)
	require.Equal(t, format.CurrentFingerprint, got)
}

func TestCheckGraphRejectsVersionMismatch(t *testing.T) {
	stale := format.CurrentFingerprint
	stale.GraphVersion++
	require.Error(t, format.CheckGraph(stale))
	require.NoError(t, format.CheckGraph(format.CurrentFingerprint))
}

func TestCheckCoreIgnoresUnrelatedFields(t *testing.T) {
	fp := format.CurrentFingerprint
	fp.RTreeVersion++ // unrelated field; CheckCore must not care
	require.NoError(t, format.CheckCore(fp))
}
