package order

import "testing"

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		current, target string
		want            bool
	}{
		{"PAID", "FULFILLED", true},
		{"PAID", "CANCELLED", true},
		{"PENDING_PAYMENT", "CANCELLED", true},
		{"PENDING_PAYMENT", "FULFILLED", false},
		{"FULFILLED", "CANCELLED", false},
		{"CANCELLED", "FULFILLED", false},
		{"PAID", "PAID", false},
		{"PAID", "SHIPPED", false},
	}
	for _, c := range cases {
		if got := transitionAllowed(c.current, c.target); got != c.want {
			t.Fatalf("transitionAllowed(%s, %s) = %v, want %v", c.current, c.target, got, c.want)
		}
	}
}
