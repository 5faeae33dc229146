package auth

import "testing"

// TestHashPassword_Deterministic は同じ入力から常に同じハッシュが得られることを検証する。
func TestHashPassword_Deterministic(t *testing.T) {
	h1 := HashPassword("password123")
	h2 := HashPassword("password123")
	if h1 != h2 {
		t.Errorf("expected deterministic hash, got %s and %s", h1, h2)
	}
}

// TestHashPassword_Format はハッシュが64文字の小文字16進であることを検証する。
func TestHashPassword_Format(t *testing.T) {
	h := HashPassword("よさこい")
	if len(h) != 64 {
		t.Errorf("expected 64 chars, got %d", len(h))
	}
	for _, c := range h {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Errorf("unexpected character %q in hash", c)
		}
	}
}

// TestHashPassword_KnownValue は既知のSHA-256値と一致することを検証する。
func TestHashPassword_KnownValue(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashPassword("abc"); got != want {
		t.Errorf("HashPassword(\"abc\") = %s, want %s", got, want)
	}
}

// TestHashPassword_DistinctInputs は異なる入力が異なるハッシュになることを検証する。
func TestHashPassword_DistinctInputs(t *testing.T) {
	if HashPassword("password1") == HashPassword("password2") {
		t.Error("expected distinct hashes for distinct inputs")
	}
}
