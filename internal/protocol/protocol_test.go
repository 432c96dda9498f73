package protocol

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"trackerlink/internal/telemetry"
)

func sampleFrame() telemetry.Frame {
	return telemetry.Frame{
		Role:     telemetry.RoleHanded,
		Position: r3.Vector{X: 1, Y: 2, Z: 3},
		Rotation: quat.Number{Imag: 0.1, Jmag: 0.2, Kmag: 0.3, Real: 0.4},
		Velocity: r3.Vector{X: 4, Y: 5, Z: 6},
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		batch telemetry.Batch
		want  string
	}{
		{
			name:  "arity groups",
			batch: telemetry.Batch{APIVersion: RevisionArity, Frames: []telemetry.Frame{sampleFrame()}},
			want:  "2|1|4|1|1|3|1.000|2.000|3.000|4|0.100|0.200|0.300|0.400|3|4.000|5.000|6.000",
		},
		{
			name:  "legacy",
			batch: telemetry.Batch{APIVersion: RevisionLegacy, Frames: []telemetry.Frame{sampleFrame()}},
			want:  "1|1|1.000|2.000|3.000|0.100|0.200|0.300|0.400|4.000|5.000|6.000",
		},
		{
			name:  "tagged",
			batch: telemetry.Batch{APIVersion: RevisionTagged, Frames: []telemetry.Frame{sampleFrame()}},
			want:  "3|1|4|1|1|1|2|3|1.000|2.000|3.000|3|4|0.100|0.200|0.300|0.400|4|3|4.000|5.000|6.000",
		},
		{
			name:  "empty batch",
			batch: telemetry.Batch{APIVersion: RevisionArity},
			want:  "2|0",
		},
		{
			name:  "unset version defaults to arity groups",
			batch: telemetry.Batch{},
			want:  "2|0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.batch))
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	f := sampleFrame()
	g := sampleFrame()
	g.Role = telemetry.RoleKeyboard
	batch := telemetry.Batch{APIVersion: RevisionArity, Frames: []telemetry.Frame{f, g}}

	first := Encode(batch)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Encode(batch))
	}
	assert.Contains(t, first, "2|2|4|1|1|")
	assert.Contains(t, first, "|4|1|13|")
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.000", FormatFloat(-0.0001))
	assert.Equal(t, "-0.001", FormatFloat(-0.0009))
	assert.Equal(t, "1234567.000", FormatFloat(1234567))
	assert.Equal(t, "0.123", FormatFloat(0.12345))
}

func TestDecode(t *testing.T) {
	for _, rev := range []int{RevisionLegacy, RevisionArity, RevisionTagged} {
		encoded := Encode(telemetry.Batch{APIVersion: rev, Frames: []telemetry.Frame{sampleFrame()}})
		batch, err := Decode(encoded)
		require.NoError(t, err, encoded)
		assert.Equal(t, rev, batch.APIVersion)
		require.Len(t, batch.Frames, 1)

		f := batch.Frames[0]
		assert.Equal(t, r3.Vector{X: 1, Y: 2, Z: 3}, f.Position)
		assert.Equal(t, quat.Number{Imag: 0.1, Jmag: 0.2, Kmag: 0.3, Real: 0.4}, f.Rotation)
		assert.Equal(t, r3.Vector{X: 4, Y: 5, Z: 6}, f.Velocity)
		if rev != RevisionLegacy {
			assert.Equal(t, telemetry.RoleHanded, f.Role)
		}
	}
}

func TestDecodeSkipsUnknownProperties(t *testing.T) {
	// A fifth property appended by a newer encoder.
	batch, err := Decode("2|1|5|1|3|3|1.000|2.000|3.000|4|0.000|0.000|0.000|1.000|3|0.000|0.000|0.000|2|7.000|8.000")
	require.NoError(t, err)
	require.Len(t, batch.Frames, 1)
	assert.Equal(t, telemetry.RoleRightFoot, batch.Frames[0].Role)

	batch, err = Decode("3|1|2|9|2|7.000|8.000|1|1|10")
	require.NoError(t, err)
	assert.Equal(t, telemetry.RoleWaist, batch.Frames[0].Role)
}

func TestDecodeErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"9|0",
		"2",
		"2|1",
		"2|1|4|1|1|3|1.000|2.000",
		"2|0|extra",
		"2|1|1|1|99",
		"2|1|1|2|1|2",
		"2|-1",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Decode(in)
			assert.Error(t, err)
		})
	}
}
