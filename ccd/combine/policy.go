package combine

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Method selects the statistic used to reduce the surviving values.
type Method int

const (
	MethodWeightMean Method = iota // weighted mean, equal weights unless configured
	MethodMean
	MethodMedian

	methodCount // sentinel
)

var methodNames = [methodCount]string{"weightmean", "mean", "median"}

// String returns the configuration name of the method.
func (m Method) String() string {
	if m.Valid() {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool { return m >= 0 && m < methodCount }

// SaturationPolicy controls how values at or above the saturation level
// enter the combination.
type SaturationPolicy int

const (
	SatReject  SaturationPolicy = iota // exclude saturated values
	SatForce                           // output the saturation level wherever any frame saturated
	SatNothing                         // treat saturated values like any other

	satCount // sentinel
)

var satNames = [satCount]string{"reject", "force", "nothing"}

// String returns the configuration name of the policy.
func (p SaturationPolicy) String() string {
	if p.Valid() {
		return satNames[p]
	}
	return fmt.Sprintf("SaturationPolicy(%d)", int(p))
}

// Valid reports whether p is a known policy.
func (p SaturationPolicy) Valid() bool { return p >= 0 && p < satCount }

// ReplacePolicy fills pixels where every value was rejected.
type ReplacePolicy int

const (
	ReplaceMaxNonSat ReplacePolicy = iota // largest unsaturated value, else the saturation level
	ReplaceMin
	ReplaceMax
	ReplaceMean
	ReplaceMedian
	ReplaceWeightMean
	ReplaceSentinel // Config.Sentinel

	replaceCount // sentinel
)

var replaceNames = [replaceCount]string{"maxnonsat", "min", "max", "mean", "median", "weightmean", "sentinel"}

// String returns the configuration name of the policy.
func (p ReplacePolicy) String() string {
	if p.Valid() {
		return replaceNames[p]
	}
	return fmt.Sprintf("ReplacePolicy(%d)", int(p))
}

// Valid reports whether p is a known policy.
func (p ReplacePolicy) Valid() bool { return p >= 0 && p < replaceCount }

func lookup(names []string, what, name string) (int, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range names {
		if s == n {
			return i, nil
		}
	}

	return 0, ccd.Errorf(ccd.ErrUnsupportedMethod, "%s %q", what, name)
}

// ParseMethod returns the combination method with the given name.
func ParseMethod(name string) (Method, error) {
	i, err := lookup(methodNames[:], "combine method", name)
	return Method(i), err
}

// ParseSaturationPolicy returns the saturation policy with the given name.
func ParseSaturationPolicy(name string) (SaturationPolicy, error) {
	i, err := lookup(satNames[:], "saturation policy", name)
	return SaturationPolicy(i), err
}

// ParseReplacePolicy returns the replacement policy with the given name.
func ParseReplacePolicy(name string) (ReplacePolicy, error) {
	i, err := lookup(replaceNames[:], "replace policy", name)
	return ReplacePolicy(i), err
}
