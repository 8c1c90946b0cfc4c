package common

import "testing"

func TestAWSConfig_Options(t *testing.T) {
	if n := len(AWSConfig{}.options()); n != 0 {
		t.Fatalf("expected no overrides, got %d", n)
	}
	if n := len(AWSConfig{Region: "eu-west-1", Profile: "local"}.options()); n != 2 {
		t.Fatalf("expected region and profile overrides, got %d", n)
	}
}
