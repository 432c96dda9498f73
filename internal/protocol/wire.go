package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"trackerlink/internal/openvr"
	"trackerlink/internal/telemetry"
)

// Wire revisions. The revision is the first field of every frame string and
// must be bumped whenever field order changes.
const (
	RevisionLegacy = 1
	RevisionArity  = 2
	RevisionTagged = 3
)

// Property tags, in the order they are written.
const (
	TagRole     = 1
	TagPosition = 2
	TagRotation = 3
	TagVelocity = 4
)

const separator = "|"

var errTruncated = errors.New("frame truncated")

// propertyArity lists the value count of every known tag.
var propertyArity = map[int]int{
	TagRole:     1,
	TagPosition: 3,
	TagRotation: 4,
	TagVelocity: 3,
}

// ParseRevision validates a configured revision. Zero selects RevisionArity.
func ParseRevision(rev int) (int, error) {
	switch rev {
	case 0:
		return RevisionArity, nil
	case RevisionLegacy, RevisionArity, RevisionTagged:
		return rev, nil
	default:
		return 0, fmt.Errorf("unsupported wire revision %d", rev)
	}
}

// Encode renders batch as a pipe-delimited ASCII string. It is deterministic
// and never fails. Unknown revisions are written as RevisionArity.
//
// Layout per revision:
//
//	1: 1|count|{px|py|pz|qx|qy|qz|qw|vx|vy|vz}...
//	2: 2|count|{4|1|role|3|px|py|pz|4|qx|qy|qz|qw|3|vx|vy|vz}...
//	3: 3|count|{4|1|1|role|2|3|px|py|pz|3|4|qx|qy|qz|qw|4|3|vx|vy|vz}...
//
// In revision 2 a property's tag is its position within the frame; each group
// is its arity followed by that many values. Revision 3 prefixes every group
// with its tag. Floats carry exactly three decimals.
func Encode(batch telemetry.Batch) string {
	rev := batch.APIVersion
	if rev != RevisionLegacy && rev != RevisionTagged {
		rev = RevisionArity
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(rev))
	b.WriteString(separator)
	b.WriteString(strconv.Itoa(len(batch.Frames)))

	for _, f := range batch.Frames {
		switch rev {
		case RevisionLegacy:
			writeFloats(&b, f.Position.X, f.Position.Y, f.Position.Z)
			writeFloats(&b, f.Rotation.Imag, f.Rotation.Jmag, f.Rotation.Kmag, f.Rotation.Real)
			writeFloats(&b, f.Velocity.X, f.Velocity.Y, f.Velocity.Z)
		default:
			writeInts(&b, 4)
			writeGroupHeader(&b, rev, TagRole, 1)
			writeInts(&b, int(f.Role))
			writeGroupHeader(&b, rev, TagPosition, 3)
			writeFloats(&b, f.Position.X, f.Position.Y, f.Position.Z)
			writeGroupHeader(&b, rev, TagRotation, 4)
			writeFloats(&b, f.Rotation.Imag, f.Rotation.Jmag, f.Rotation.Kmag, f.Rotation.Real)
			writeGroupHeader(&b, rev, TagVelocity, 3)
			writeFloats(&b, f.Velocity.X, f.Velocity.Y, f.Velocity.Z)
		}
	}
	return b.String()
}

func writeGroupHeader(b *strings.Builder, rev, tag, arity int) {
	if rev == RevisionTagged {
		writeInts(b, tag)
	}
	writeInts(b, arity)
}

func writeInts(b *strings.Builder, values ...int) {
	for _, v := range values {
		b.WriteString(separator)
		b.WriteString(strconv.Itoa(v))
	}
}

func writeFloats(b *strings.Builder, values ...float64) {
	for _, v := range values {
		b.WriteString(separator)
		b.WriteString(FormatFloat(v))
	}
}

// FormatFloat renders v with three fixed decimals. Negative zero is written as 0.000.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	if s == "-0.000" {
		return "0.000"
	}
	return s
}

// Decode parses a frame string of any supported revision. Properties with
// unknown tags are skipped using their arity. Frames come back as generic
// trackers with DeviceIndex set to their position in the batch.
func Decode(data string) (telemetry.Batch, error) {
	r := &reader{fields: strings.Split(data, separator)}

	rev, err := r.int()
	if err != nil {
		return telemetry.Batch{}, fmt.Errorf("wire: bad version: %w", err)
	}
	if rev != RevisionLegacy && rev != RevisionArity && rev != RevisionTagged {
		return telemetry.Batch{}, fmt.Errorf("wire: unsupported api version %d", rev)
	}
	count, err := r.int()
	if err != nil {
		return telemetry.Batch{}, fmt.Errorf("wire: bad frame count: %w", err)
	}
	if count < 0 {
		return telemetry.Batch{}, fmt.Errorf("wire: negative frame count %d", count)
	}

	batch := telemetry.Batch{APIVersion: rev, Frames: make([]telemetry.Frame, 0, count)}
	for i := 0; i < count; i++ {
		f := telemetry.Frame{DeviceIndex: uint32(i), Class: openvr.ClassGenericTracker}
		if rev == RevisionLegacy {
			err = r.legacyFrame(&f)
		} else {
			err = r.frame(rev, &f)
		}
		if err != nil {
			return telemetry.Batch{}, fmt.Errorf("wire: frame %d: %w", i, err)
		}
		batch.Frames = append(batch.Frames, f)
	}
	if !r.done() {
		return telemetry.Batch{}, fmt.Errorf("wire: %d trailing fields", len(r.fields)-r.pos)
	}
	return batch, nil
}

type reader struct {
	fields []string
	pos    int
}

func (r *reader) done() bool { return r.pos >= len(r.fields) }

func (r *reader) next() (string, error) {
	if r.done() {
		return "", errTruncated
	}
	s := r.fields[r.pos]
	r.pos++
	return s, nil
}

func (r *reader) int() (int, error) {
	s, err := r.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (r *reader) floats(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		s, err := r.next()
		if err != nil {
			return nil, err
		}
		if out[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) legacyFrame(f *telemetry.Frame) error {
	v, err := r.floats(10)
	if err != nil {
		return err
	}
	f.Position = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	f.Rotation = quat.Number{Imag: v[3], Jmag: v[4], Kmag: v[5], Real: v[6]}
	f.Velocity = r3.Vector{X: v[7], Y: v[8], Z: v[9]}
	return nil
}

func (r *reader) frame(rev int, f *telemetry.Frame) error {
	props, err := r.int()
	if err != nil {
		return err
	}
	for p := 0; p < props; p++ {
		tag := p + 1
		if rev == RevisionTagged {
			if tag, err = r.int(); err != nil {
				return err
			}
		}
		arity, err := r.int()
		if err != nil {
			return err
		}
		if arity < 0 {
			return fmt.Errorf("negative arity %d", arity)
		}
		v, err := r.floats(arity)
		if err != nil {
			return err
		}
		if err := applyProperty(f, tag, v); err != nil {
			return err
		}
	}
	return nil
}

func applyProperty(f *telemetry.Frame, tag int, v []float64) error {
	want, ok := propertyArity[tag]
	if !ok {
		return nil
	}
	if len(v) != want {
		return fmt.Errorf("property %d has arity %d, want %d", tag, len(v), want)
	}
	switch tag {
	case TagRole:
		role := telemetry.Role(int(v[0]))
		if !role.Valid() || float64(role) != v[0] {
			return fmt.Errorf("bad role %v", v[0])
		}
		f.Role = role
	case TagPosition:
		f.Position = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	case TagRotation:
		f.Rotation = quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2], Real: v[3]}
	case TagVelocity:
		f.Velocity = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	}
	return nil
}
