package validation

import (
	"testing"

	"github.com/steveyegge/tagtrace/internal/types"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"@REQ:AUTH-001", false},
		{"@TASK-PAY-1000", false},
		{"", true},
		{"@REQ:AUTH-1", true},
		{"REQ:AUTH-001", true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		input    string
		wantID   string
		wantType types.TagType
		wantErr  bool
	}{
		{"@REQ:AUTH-001", "@REQ:AUTH-001", types.TypeREQ, false},
		{"DESIGN:AUTH-001", "@DESIGN:AUTH-001", types.TypeDESIGN, false},
		{"  @TEST:USER-PROFILE-010 ", "@TEST:USER-PROFILE-010", types.TypeTEST, false},
		{"@BOGUS:AUTH-001", "", "", true},
		{"@REQ:AUTH", "", "", true},
		{"nonsense", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReference(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ref.ID() != tt.wantID || ref.Type != tt.wantType {
				t.Errorf("ParseReference(%q) = %+v", tt.input, ref)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseStatus("in-progress"); err != nil || s != types.StatusInProgress {
		t.Errorf("ParseStatus(in-progress) = %q, %v", s, err)
	}
	if _, err := ParseStatus("open"); err == nil {
		t.Error("ParseStatus(open) should fail")
	}
	if p, err := ParsePriority("HIGH"); err != nil || p != types.PriorityHigh {
		t.Errorf("ParsePriority(HIGH) = %q, %v", p, err)
	}
	if typ, err := ParseTagType("feature"); err != nil || typ != types.TypeFEATURE {
		t.Errorf("ParseTagType(feature) = %q, %v", typ, err)
	}
	if c, err := ParseCategory("quality"); err != nil || c != types.CategoryQuality {
		t.Errorf("ParseCategory(quality) = %q, %v", c, err)
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := map[string]string{
		"auth":          "AUTH",
		"user profile":  "USER-PROFILE",
		"  --pay_ment ": "PAY-MENT",
		"API v2":        "API-V2",
	}
	for in, want := range tests {
		if got := NormalizeDomain(in); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateEntry(t *testing.T) {
	ok := &types.TagEntry{ID: "@REQ:AUTH-001", Title: "Login"}
	if errs := ValidateEntry(ok); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	bad := &types.TagEntry{ID: "bad", Status: "open"}
	if errs := ValidateEntry(bad); len(errs) != 3 {
		t.Errorf("expected id, title and status errors, got %v", errs)
	}
}
