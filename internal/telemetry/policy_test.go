package telemetry

import "testing"

// calm is a sample that trips no rule of any built-in policy.
var calm = Sample{Temperature: 70, Vibration: 30, LoadPct: 60, AmbientTemp: 25, HumidityPct: 40, MachineAgeYears: 2}

func TestExtendedPolicy(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		edit func(*Sample)
		want bool
	}{
		{"calm", func(*Sample) {}, false},
		{"temperature breach", func(s *Sample) { s.Temperature = 85 }, true},
		{"temperature breach with everything else high", func(s *Sample) {
			s.Temperature = 85
			s.LoadPct = 99
			s.MachineAgeYears = 9.5
		}, true},
		{"vibration breach", func(s *Sample) { s.Vibration = 50.1 }, true},
		{"vibration at threshold", func(s *Sample) { s.Vibration = 50 }, false},
		{"load and temp", func(s *Sample) { s.LoadPct = 95; s.Temperature = 76 }, true},
		{"load without temp", func(s *Sample) { s.LoadPct = 95; s.Temperature = 70 }, false},
		{"load at cutoff", func(s *Sample) { s.LoadPct = 90; s.Temperature = 76 }, false},
		{"ambient and humidity", func(s *Sample) { s.AmbientTemp = 36; s.HumidityPct = 71 }, true},
		{"ambient only", func(s *Sample) { s.AmbientTemp = 39 }, false},
		{"old machine", func(s *Sample) { s.MachineAgeYears = 8.01 }, true},
		{"age at cutoff", func(s *Sample) { s.MachineAgeYears = 8 }, false},
	}
	for _, tc := range cases {
		s := calm
		tc.edit(&s)
		if got := ExtendedPolicy(s, th); got != tc.want {
			t.Errorf("%s: got %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestExtendedPolicyTemperatureAlwaysFails(t *testing.T) {
	th := DefaultThresholds()
	for _, load := range []float64{50, 75, 99} {
		for _, age := range []float64{1, 5, 9} {
			s := Sample{Temperature: 85, Vibration: 0, LoadPct: load, AmbientTemp: 20, HumidityPct: 30, MachineAgeYears: age}
			if !ExtendedPolicy(s, th) {
				t.Fatalf("temperature 85 must fail: %+v", s)
			}
		}
	}
}

func TestSimplePolicyStrictLoad(t *testing.T) {
	th := DefaultThresholds()
	s := calm
	s.LoadPct = th.Load
	if SimplePolicy(s, th) {
		t.Fatalf("load equal to threshold must not fail")
	}
	s.LoadPct = th.Load + 0.001
	if !SimplePolicy(s, th) {
		t.Fatalf("load above threshold must fail")
	}
	th.Load = 95
	s.LoadPct = 94
	if SimplePolicy(s, th) {
		t.Fatalf("custom load threshold not honoured")
	}
}

func TestCorePolicyIgnoresLoad(t *testing.T) {
	s := calm
	s.LoadPct = 100
	if CorePolicy(s, DefaultThresholds()) {
		t.Fatalf("core policy must ignore load")
	}
}

func TestRegisterAndLookupPolicy(t *testing.T) {
	RegisterPolicy("always", func(Sample, Thresholds) bool { return true })
	fn, err := LookupPolicy("always")
	if err != nil {
		t.Fatalf("LookupPolicy: %v", err)
	}
	if !fn(calm, DefaultThresholds()) {
		t.Fatalf("registered policy not returned")
	}
	if _, err := LookupPolicy("missing"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
	found := false
	for _, n := range Policies() {
		if n == "always" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Policies() missing registered name")
	}
}
