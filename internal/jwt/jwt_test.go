package jwt_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtx "github.com/dropDatabas3/authcore/internal/jwt"
)

func newIssuer() *jwtx.Issuer {
	return jwtx.NewIssuer("authcore-test", []byte("un-secreto-de-test-suficientemente-largo"))
}

func TestIssueParseAccess(t *testing.T) {
	i := newIssuer()
	tok, exp, err := i.IssueAccess("user-1", "manager")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if time.Until(exp) > i.AccessTTL || time.Until(exp) <= 0 {
		t.Fatalf("expiry fuera de rango: %v", exp)
	}

	claims, err := i.Parse(tok, jwtx.AudienceAccess)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Role != "manager" {
		t.Errorf("role = %q", claims.Role)
	}
	if claims.TokenID == "" {
		t.Error("jti vacío")
	}
}

func TestAudienceDisjoint(t *testing.T) {
	i := newIssuer()
	access, _, _ := i.IssueAccess("user-1", "staff")
	refresh, _, _ := i.IssueRefresh("user-1")

	if _, err := i.Parse(access, jwtx.AudienceRefresh); !errors.Is(err, jwtx.ErrWrongAudience) {
		t.Fatalf("access token como refresh: err = %v, want ErrWrongAudience", err)
	}
	if _, err := i.Parse(refresh, jwtx.AudienceAccess); !errors.Is(err, jwtx.ErrWrongAudience) {
		t.Fatalf("refresh token como access: err = %v, want ErrWrongAudience", err)
	}
}

func TestExpiredTokenStrict(t *testing.T) {
	i := newIssuer()
	i.AccessTTL = -1 * time.Second // ya nacido vencido

	tok, _, err := i.IssueAccess("user-1", "staff")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := i.Parse(tok, jwtx.AudienceAccess); !errors.Is(err, jwtx.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestTamperedSignature(t *testing.T) {
	i := newIssuer()
	tok, _, _ := i.IssueAccess("user-1", "staff")

	other := jwtx.NewIssuer("authcore-test", []byte("otro-secreto-totalmente-distinto!!"))
	if _, err := other.Parse(tok, jwtx.AudienceAccess); !errors.Is(err, jwtx.ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestTamperedPayload(t *testing.T) {
	i := newIssuer()
	tok, _, _ := i.IssueAccess("user-1", "staff")

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("jwt con %d partes", len(parts))
	}
	// payload de otro token, firma del original
	tok2, _, _ := i.IssueAccess("user-2", "administrator")
	parts2 := strings.Split(tok2, ".")
	franken := parts[0] + "." + parts2[1] + "." + parts[2]

	if _, err := i.Parse(franken, jwtx.AudienceAccess); err == nil {
		t.Fatal("payload adulterado debería fallar")
	}
}

func TestMalformedToken(t *testing.T) {
	i := newIssuer()
	for _, tok := range []string{"", "garbage", "a.b", "a.b.c"} {
		if _, err := i.Parse(tok, jwtx.AudienceAccess); !errors.Is(err, jwtx.ErrMalformed) && !errors.Is(err, jwtx.ErrSignatureInvalid) {
			t.Errorf("Parse(%q) = %v, want malformed/signature", tok, err)
		}
	}
}

func TestWrongIssuer(t *testing.T) {
	other := jwtx.NewIssuer("otro-servicio", []byte("un-secreto-de-test-suficientemente-largo"))
	tok, _, _ := other.IssueAccess("user-1", "staff")

	i := newIssuer()
	if _, err := i.Parse(tok, jwtx.AudienceAccess); err == nil {
		t.Fatal("issuer ajeno debería fallar")
	}
}
