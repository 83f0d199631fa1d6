package password_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dropDatabas3/authcore/internal/security/password"
)

// fastParams keeps the tests quick; production params live in config.
var fastParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerifyRoundtrip(t *testing.T) {
	h := password.NewHasher(fastParams, 2)
	ctx := context.Background()

	phc, err := h.Hash(ctx, "S3cret!pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$") {
		t.Fatalf("unexpected PHC format: %s", phc)
	}

	ok, err := h.Verify(ctx, "S3cret!pass", phc)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password should verify")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	h := password.NewHasher(fastParams, 2)
	ctx := context.Background()

	phc, err := h.Hash(ctx, "S3cret!pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	ok, err := h.Verify(ctx, "otra-cosa", phc)
	if err != nil {
		t.Fatalf("wrong password must not be an error, got %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashSaltUnique(t *testing.T) {
	h := password.NewHasher(fastParams, 2)
	ctx := context.Background()

	a, _ := h.Hash(ctx, "same-password")
	b, _ := h.Hash(ctx, "same-password")
	if a == b {
		t.Fatal("two hashes of the same password must differ (per-hash salt)")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	h := password.NewHasher(fastParams, 2)
	if _, err := h.Hash(context.Background(), ""); err == nil {
		t.Fatal("empty password should error")
	}
}

func TestVerifyGarbagePHC(t *testing.T) {
	h := password.NewHasher(fastParams, 2)
	if _, err := h.Verify(context.Background(), "x", "not-a-phc"); err == nil {
		t.Fatal("garbage PHC should error")
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := password.NewHasher(fastParams, 2)
	strong := password.NewHasher(password.Params{Memory: 16 * 1024, Time: 2, Parallelism: 1, KeyLen: 32}, 2)

	phc, err := weak.Hash(context.Background(), "S3cret!pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strong.NeedsRehash(phc) {
		t.Fatal("hash below current params should need rehash")
	}
	if weak.NeedsRehash(phc) {
		t.Fatal("hash at current params should not need rehash")
	}
}

func TestPolicyValidate(t *testing.T) {
	p := password.DefaultPolicy

	if ok, _ := p.Validate("Abcdef12"); !ok {
		t.Fatal("compliant password rejected")
	}
	cases := []struct {
		pass   string
		reason string
	}{
		{"Ab1", "too_short"},
		{"abcdefg1", "missing_upper"},
		{"ABCDEFG1", "missing_lower"},
		{"Abcdefgh", "missing_digit"},
	}
	for _, c := range cases {
		ok, reasons := p.Validate(c.pass)
		if ok {
			t.Errorf("Validate(%q) should fail", c.pass)
			continue
		}
		found := false
		for _, r := range reasons {
			if r == c.reason {
				found = true
			}
		}
		if !found {
			t.Errorf("Validate(%q) reasons %v missing %q", c.pass, reasons, c.reason)
		}
	}
}
