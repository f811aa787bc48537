package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// DistKind names one of the distribution specifiers of spec.md §4.1.
type DistKind string

const (
	DistUniform DistKind = "uniform"
	DistUnilog  DistKind = "unilog"
	DistNormal  DistKind = "normal"
	DistExpit   DistKind = "expit"
	DistConst   DistKind = "const"
)

// Distribution is a hyperparameter initializer: one of
// uniform(lo,hi), unilog(lo,hi) = 10^U(lo,hi), normal(mu,sigma),
// expit(lo,hi) = sigmoid(U(logit(lo),logit(hi))), const(c).
//
// It decodes from the heterogeneous tuple shape used by the config
// document (e.g. ["unilog", 3, 6]) rather than a struct, since that's the
// wire shape inherited from the distilled spec (and the Python original
// it was distilled from).
type Distribution struct {
	Kind DistKind
	A, B float64
}

// Sample draws one value from the distribution using rng. rng must belong
// to the caller (worker.Worker seeds its own per spec.md §9) — Distribution
// never touches a package-level or shared generator.
func (d Distribution) Sample(rng *rand.Rand) float64 {
	switch d.Kind {
	case DistUniform:
		return d.A + rng.Float64()*(d.B-d.A)
	case DistUnilog:
		return math.Pow(10, d.A+rng.Float64()*(d.B-d.A))
	case DistNormal:
		return d.A + d.B*rng.NormFloat64()
	case DistExpit:
		lo, hi := logit(d.A), logit(d.B)
		return expit(lo + rng.Float64()*(hi-lo))
	case DistConst:
		return d.A
	}
	// Validate is responsible for catching this before a worker ever
	// calls Sample; reaching here means a Distribution escaped validation.
	panic(fmt.Sprintf("config: unvalidated distribution kind %q", d.Kind))
}

// Validate reports an error for an unknown distribution tag — a
// configuration error, fatal at startup per spec.md §7.
func (d Distribution) Validate() error {
	switch d.Kind {
	case DistUniform, DistUnilog, DistNormal, DistExpit, DistConst:
		return nil
	default:
		return fmt.Errorf("config: unknown distribution %q", d.Kind)
	}
}

func logit(p float64) float64 { return math.Log(p / (1 - p)) }
func expit(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// UnmarshalYAML decodes the ["kind", a, b] / ["const", c] tuple shape.
func (d *Distribution) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw []interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return d.fromSlice(raw)
}

func (d *Distribution) fromSlice(raw []interface{}) error {
	if len(raw) < 2 {
		return fmt.Errorf("config: distribution tuple %v too short", raw)
	}
	kind, ok := raw[0].(string)
	if !ok {
		return fmt.Errorf("config: distribution tag %v is not a string", raw[0])
	}
	d.Kind = DistKind(kind)
	a, err := toFloat(raw[1])
	if err != nil {
		return err
	}
	d.A = a
	if len(raw) >= 3 {
		b, err := toFloat(raw[2])
		if err != nil {
			return err
		}
		d.B = b
	}
	return nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("config: distribution parameter %v is not numeric", v)
	}
}

// UnmarshalJSON decodes the ["kind", a, b] / ["const", c] tuple shape for
// callers that keep their config document as plain JSON.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	return d.fromSlice(raw)
}
