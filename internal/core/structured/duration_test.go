package structured

import "testing"

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		nil_ bool
	}{
		{"PT30M", 30, false},
		{"PT1H", 60, false},
		{"PT1H30M", 90, false},
		{"PT2H15M", 135, false},
		{"PT90S", 2, false},
		{"PT45S", 1, false},
		{"PT20S", 0, false},
		{"PT1H0M30S", 61, false},
		{"P1D", 1440, false},
		{"P1DT2H", 1560, false},
		{"PT0M", 0, false},
		{"", 0, true},
		{"garbage", 0, true},
		{"P", 0, true},
		{"30 minutes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseISODuration(tt.in)
			if tt.nil_ {
				if got != nil {
					t.Errorf("ParseISODuration(%q) = %d, want nil", tt.in, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseISODuration(%q) = nil, want %d", tt.in, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ParseISODuration(%q) = %d, want %d", tt.in, *got, tt.want)
			}
		})
	}
}
