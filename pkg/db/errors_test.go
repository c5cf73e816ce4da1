package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres", errors.New(`duplicate key value violates unique constraint "vouchers_code_key"`), true},
		{"sqlite", errors.New("UNIQUE constraint failed: users.email"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
