package model

import "testing"

func TestContractKey(t *testing.T) {
	a := Contract{Exchange: "NFO", Token: "43125"}
	if got := a.Key(); got != "NFO:43125" {
		t.Errorf("Key() = %q, want NFO:43125", got)
	}

	// Same token on a different exchange must not collide.
	b := Contract{Exchange: "NSE", Token: "43125"}
	if a.Key() == b.Key() {
		t.Error("keys collide across exchanges")
	}
}
