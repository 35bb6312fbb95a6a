package wa

import "testing"

func TestChatLink(t *testing.T) {
	tests := []struct {
		country string
		phone   string
		want    string
		wantErr bool
	}{
		{"IN", "9876543210", "https://wa.me/919876543210", false},
		{"IN", "098765 43210", "https://wa.me/919876543210", false},
		{"US", "(202) 555-0143", "https://wa.me/12025550143", false},
		{"GB", "07911 123456", "https://wa.me/447911123456", false},
		{"IN", "+919876543210", "", true},
		{"IN", "98a76", "", true},
		{"IN", "00", "", true},
		{"XX", "9876543210", "", true},
	}
	for _, tt := range tests {
		got, err := ChatLink(tt.country, tt.phone)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ChatLink(%q, %q) expected error, got %q", tt.country, tt.phone, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ChatLink(%q, %q): %v", tt.country, tt.phone, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ChatLink(%q, %q) = %q, want %q", tt.country, tt.phone, got, tt.want)
		}
	}
}
