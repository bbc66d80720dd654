package security

import (
	"time"

	"CareGene/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options controls gateway token verification.
type Options struct {
	Secret []byte        // HMAC key shared with the gateway
	TTL    time.Duration // issuance TTL, default 2h
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, TTL: 2 * time.Hour}
}

// Generate signs a gateway service token for the given subject. Used by
// tests and local tooling; in deployment the upstream gateway signs.
func Generate(opts Options, subject string) (string, time.Time, error) {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)
	claims := jwtlib.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, errs.Wrap(err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the subject claim.
func Verify(opts Options, token string) (string, error) {
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errs.New("unexpected signing method", "alg", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errs.ErrMissingIdentity.WrapMsg("invalid gateway token")
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", errs.ErrMissingIdentity.WrapMsg("invalid gateway claims")
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
