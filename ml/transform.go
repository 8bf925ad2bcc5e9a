package ml

import (
	"fmt"
	"math"
)

// TargetTransform is the transform applied to the yield target at training
// time. Serving must invert the same transform; the artifact records which
// one was used so the two sides cannot drift silently.
type TargetTransform string

const (
	TargetLog      TargetTransform = "log"
	TargetLog1p    TargetTransform = "log1p"
	TargetIdentity TargetTransform = "none"
)

// DefaultTargetTransform is assumed for artifacts that do not declare one.
const DefaultTargetTransform = TargetLog

func ParseTargetTransform(s string) (TargetTransform, error) {
	switch t := TargetTransform(s); t {
	case TargetLog, TargetLog1p, TargetIdentity:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported target transform %q", s)
	}
}

// Inverse maps a model output back to linear yield space.
func (t TargetTransform) Inverse(x float64) float64 {
	switch t {
	case TargetLog1p:
		return math.Expm1(x)
	case TargetIdentity:
		return x
	default:
		return math.Exp(x)
	}
}
