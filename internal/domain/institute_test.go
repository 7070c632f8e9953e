package domain_test

import (
	"testing"

	"github.com/HarshChauhan10/Queues/internal/domain"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		input   string
		want    domain.TimeOfDay
		wantErr bool
	}{
		{"09:00", domain.TimeOfDay{Hour: 9, Minute: 0}, false},
		{"17:30", domain.TimeOfDay{Hour: 17, Minute: 30}, false},
		{"00:00", domain.TimeOfDay{}, false},
		{"23:59", domain.TimeOfDay{Hour: 23, Minute: 59}, false},
		{"24:00", domain.TimeOfDay{}, true},
		{"12:60", domain.TimeOfDay{}, true},
		{"noon", domain.TimeOfDay{}, true},
		{"", domain.TimeOfDay{}, true},
	}

	for _, tc := range cases {
		got, err := domain.ParseTimeOfDay(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q): got %v want %v", tc.input, got, tc.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := (domain.TimeOfDay{Hour: 9, Minute: 5}).String(); got != "09:05" {
		t.Fatalf("expected zero-padded rendering, got %q", got)
	}
}
