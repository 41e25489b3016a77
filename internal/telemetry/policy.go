package telemetry

import (
	"fmt"
	"sort"
	"sync"
)

// LabelFunc decides whether a sample is a failure under the given thresholds.
// It must only look at the sample it is given.
type LabelFunc func(s Sample, th Thresholds) bool

// Built-in policy names.
const (
	PolicySimple   = "simple"
	PolicyExtended = "extended"
	PolicyCore     = "core"
)

// Fixed cutoffs of the extended rule's compound terms.
const (
	extendedLoadCutoff     = 90.0
	extendedLoadTempCutoff = 75.0
	extendedAmbientCutoff  = 35.0
	extendedHumidityCutoff = 70.0
	extendedAgeCutoff      = 8.0
)

// SimplePolicy flags a breach of any of the three configurable thresholds.
func SimplePolicy(s Sample, th Thresholds) bool {
	return s.Temperature > th.Temperature ||
		s.Vibration > th.Vibration ||
		s.LoadPct > th.Load
}

// ExtendedPolicy adds load/temperature, ambient/humidity and machine age rules
// to the temperature and vibration thresholds. The load threshold is not used.
func ExtendedPolicy(s Sample, th Thresholds) bool {
	return s.Temperature > th.Temperature ||
		s.Vibration > th.Vibration ||
		(s.LoadPct > extendedLoadCutoff && s.Temperature > extendedLoadTempCutoff) ||
		(s.AmbientTemp > extendedAmbientCutoff && s.HumidityPct > extendedHumidityCutoff) ||
		s.MachineAgeYears > extendedAgeCutoff
}

// CorePolicy only looks at temperature and vibration.
func CorePolicy(s Sample, th Thresholds) bool {
	return s.Temperature > th.Temperature || s.Vibration > th.Vibration
}

var (
	policyMu sync.RWMutex
	policies = map[string]LabelFunc{
		PolicySimple:   SimplePolicy,
		PolicyExtended: ExtendedPolicy,
		PolicyCore:     CorePolicy,
	}
)

// RegisterPolicy installs a named labelling policy, replacing any existing one.
func RegisterPolicy(name string, fn LabelFunc) {
	policyMu.Lock()
	defer policyMu.Unlock()
	policies[name] = fn
}

// LookupPolicy returns the policy registered under name.
func LookupPolicy(name string) (LabelFunc, error) {
	policyMu.RLock()
	defer policyMu.RUnlock()
	fn, ok := policies[name]
	if !ok || fn == nil {
		return nil, &ConfigError{Field: "policy", Reason: fmt.Sprintf("unknown policy %q", name)}
	}
	return fn, nil
}

// Policies returns the registered policy names in sorted order.
func Policies() []string {
	policyMu.RLock()
	defer policyMu.RUnlock()
	names := make([]string, 0, len(policies))
	for n := range policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
