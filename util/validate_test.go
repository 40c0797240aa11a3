package util

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateUUID(t *testing.T) {
	validUUID := "550e8400-e29b-41d4-a716-446655440000"
	id, err := ValidateUUID("run_id", validUUID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id.String() != validUUID {
		t.Errorf("expected %s, got %s", validUUID, id.String())
	}
}

func TestValidateUUIDEmpty(t *testing.T) {
	_, err := ValidateUUID("run_id", "")
	if err == nil {
		t.Fatal("expected error for empty UUID")
	}
	if !strings.Contains(err.Error(), "cannot be empty") {
		t.Errorf("expected 'cannot be empty' in error, got %q", err.Error())
	}
}

func TestValidateUUIDWhitespace(t *testing.T) {
	_, err := ValidateUUID("run_id", "   ")
	if err == nil {
		t.Fatal("expected error for whitespace-only UUID")
	}
}

func TestValidateUUIDInvalid(t *testing.T) {
	_, err := ValidateUUID("run_id", "not-a-uuid")
	if err == nil {
		t.Fatal("expected error for invalid UUID")
	}
	if !strings.Contains(err.Error(), "invalid UUID") {
		t.Errorf("expected 'invalid UUID' in error, got %q", err.Error())
	}
}

func TestValidateUUIDTrimsWhitespace(t *testing.T) {
	validUUID := "550e8400-e29b-41d4-a716-446655440000"
	id, err := ValidateUUID("id", "  "+validUUID+"  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != uuid.MustParse(validUUID) {
		t.Errorf("expected trimmed UUID to parse correctly")
	}
}
