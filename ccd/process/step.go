package process

import (
	"fmt"
	"slices"
	"strings"
)

// Step names one processing stage.
type Step int

const (
	StepLoad Step = iota
	StepPattern
	StepBias
	StepTrim
	StepCombine
	StepGain
	StepFlat
	StepRN2
	StepVariance

	stepCount // sentinel
)

var stepNames = [stepCount]string{"load", "pattern", "bias", "trim", "combine", "gain", "flat", "rn2", "variance"}

// String returns the name recorded in provenance.
func (s Step) String() string {
	if s.Valid() {
		return stepNames[s]
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool { return s >= 0 && s < stepCount }

// Steps is the ordered record of executed steps. The zero value is an
// empty record. Steps is a value: With returns a new record and never
// modifies the receiver.
type Steps struct {
	list []Step
}

// Has reports whether s was recorded.
func (st Steps) Has(s Step) bool {
	for _, x := range st.list {
		if x == s {
			return true
		}
	}
	return false
}

// With returns the record extended by s.
func (st Steps) With(s Step) Steps {
	out := make([]Step, len(st.list), len(st.list)+1)
	copy(out, st.list)
	return Steps{list: append(out, s)}
}

// Without returns the record with every occurrence of the given steps removed.
func (st Steps) Without(drop ...Step) Steps {
	var out []Step
	for _, x := range st.list {
		if !slices.Contains(drop, x) {
			out = append(out, x)
		}
	}
	return Steps{list: out}
}

// Keep returns the record restricted to the given steps, in their
// original order.
func (st Steps) Keep(keep ...Step) Steps {
	var out []Step
	for _, x := range st.list {
		for _, k := range keep {
			if x == k {
				out = append(out, x)
				break
			}
		}
	}
	return Steps{list: out}
}

// Len returns the number of recorded steps.
func (st Steps) Len() int { return len(st.list) }

// List returns a copy of the recorded steps in execution order.
func (st Steps) List() []Step {
	out := make([]Step, len(st.list))
	copy(out, st.list)
	return out
}

// Names returns the step names in execution order.
func (st Steps) Names() []string {
	out := make([]string, len(st.list))
	for i, s := range st.list {
		out[i] = s.String()
	}
	return out
}

// String formats the record as "[load, bias]".
func (st Steps) String() string {
	return "[" + strings.Join(st.Names(), ", ") + "]"
}
