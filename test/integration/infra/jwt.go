package infra

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type accessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Ver    int64  `json:"ver"`
	jwt.RegisteredClaims
}

// TokenIssuer mints access tokens the way the auth service does, so cases can
// act as any user without a running auth stack.
type TokenIssuer struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

func (ti TokenIssuer) Issue(uid, role string) (string, error) {
	return ti.IssueVersion(uid, role, 0)
}

// IssueVersion pins the token version claim, used to exercise revocation.
func (ti TokenIssuer) IssueVersion(uid, role string, ver int64) (string, error) {
	ttl := ti.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	now := time.Now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID: uid,
		Role:   role,
		Ver:    ver,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString([]byte(ti.Secret))
}
