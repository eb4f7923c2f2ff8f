package tsclust

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	valid := DefaultConfig()
	applyDefaults(&valid)
	if err := validateConfig(&valid); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"negative maxiter", func(c *Config) { c.MaxIter = -1 }, "MaxIter"},
		{"negative burnin", func(c *Config) { c.Burnin = -1 }, "Burnin"},
		{"burnin past maxiter", func(c *Config) { c.Burnin = c.MaxIter }, "Burnin"},
		{"bad thinning", func(c *Config) { c.Thinning = -2 }, "Thinning"},
		{"bad degree", func(c *Config) { c.Degree = -1 }, "Degree"},
		{"bad c0eps", func(c *Config) { c.C0Eps = -1 }, "C0Eps"},
		{"bad c1beta", func(c *Config) { c.C1Beta = -0.5 }, "C1Beta"},
		{"bad c0alpha", func(c *Config) { c.C0Alpha = -2 }, "C0Alpha"},
		{"pia at one", func(c *Config) { c.PiA = 1 }, "PiA"},
		{"bad q0a", func(c *Config) { c.Q0A = -1 }, "Q0A"},
		{"bad q1b", func(c *Config) { c.Q1B = -3 }, "Q1B"},
		{"negative a", func(c *Config) { c.A = -0.1 }, "A must"},
		{"a at one", func(c *Config) { c.A = 1 }, "A must"},
		{"b too small", func(c *Config) { c.A = 0.25; c.B = -0.25 }, "B must"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "Workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.MaxIter != 400 {
		t.Errorf("MaxIter = %d, want 400", cfg.MaxIter)
	}
	if cfg.Burnin != 40 {
		t.Errorf("Burnin = %d, want MaxIter/10 = 40", cfg.Burnin)
	}
	if cfg.Thinning != 5 {
		t.Errorf("Thinning = %d, want 5", cfg.Thinning)
	}
	if cfg.Degree != 2 {
		t.Errorf("Degree = %d, want 2", cfg.Degree)
	}
	if cfg.Seed != 1 {
		t.Errorf("Seed = %d, want 1", cfg.Seed)
	}
	// A and B keep their zero values: both are meaningful.
	if cfg.A != 0 || cfg.B != 0 {
		t.Errorf("A, B = %v, %v, want 0, 0", cfg.A, cfg.B)
	}

	// Explicit values survive.
	cfg = Config{MaxIter: 1000, Burnin: 200, Thinning: 2}
	applyDefaults(&cfg)
	if cfg.MaxIter != 1000 || cfg.Burnin != 200 || cfg.Thinning != 2 {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestResultMembers(t *testing.T) {
	r := &Result{Groups: []int{0, 1, 0, 2, 1, 0}, NumGroups: 3}
	if got := r.Members(0); !reflect.DeepEqual(got, []int{0, 2, 5}) {
		t.Errorf("Members(0) = %v, want [0 2 5]", got)
	}
	if got := r.Members(1); !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("Members(1) = %v, want [1 4]", got)
	}
	if got := r.Members(2); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("Members(2) = %v, want [3]", got)
	}
	if got := r.Members(3); got != nil {
		t.Errorf("Members(3) = %v, want nil", got)
	}
}
