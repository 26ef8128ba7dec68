// Package auth implements §4.3's HTTP Basic Auth gate. Grounded
// on Caddy's caddyhttp/basicauth.BasicAuth.ServeHTTP credential
// check, generalized from a per-resource htpasswd rule set to a single
// configured "user:bcrypt-hash" credential verified with
// golang.org/x/crypto/bcrypt, which gives the constant-time comparison
// §4.3 requires without hand-rolling one.
package auth

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/caddyserver/staticweb/internal/settings"
)

const realm = "Static Web Server"

// Check reports whether r carries valid Basic credentials for cred. A nil
// cred means auth is not configured, and Check always succeeds.
func Check(r *http.Request, cred *settings.Credential) bool {
	if cred == nil {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != cred.User {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(cred.BcryptHash), []byte(pass)) == nil
}

// SetChallenge sets the WWW-Authenticate header for a 401 response, per
// invariant 6.
func SetChallenge(h http.Header) {
	h.Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
}
