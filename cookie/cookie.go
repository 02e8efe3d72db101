// Package cookie wires a securecookie.Codec to net/http's Cookie type:
// thin helpers that set an encoded token as a cookie value and decode
// one back out of an incoming request. It deliberately stays on the
// standard library's net/http — a cookie is exactly a name/value/
// attributes tuple stdlib already models, and no third-party HTTP
// abstraction in the surveyed pack adds anything encoding a cookie
// value needs.
package cookie

import (
	"net/http"

	"github.com/oarkflow/securecookie"
)

// Set encodes value with codec and writes it as a cookie on w using
// the given name and any attribute overrides from opts. Overriding
// Value on an option has no effect — Set always supplies the encoded
// token as the cookie value.
func Set(w http.ResponseWriter, codec *securecookie.Codec, name string, value any, opts ...Option) error {
	token, err := codec.Encode(value)
	if err != nil {
		return err
	}
	c := &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Value = token
	http.SetCookie(w, c)
	return nil
}

// Get reads the named cookie from r and decodes it with codec. ok is
// false if the cookie is absent or fails to decode, exactly as
// Codec.Decode collapses all such failures.
func Get(r *http.Request, codec *securecookie.Codec, name string) (value any, ok bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return nil, false
	}
	return codec.Decode(c.Value)
}

// Clear overwrites the named cookie with an immediately expired,
// empty one, the conventional way to ask a browser to delete it.
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Option customizes attributes of the http.Cookie Set writes, beyond
// Set's secure defaults (Path "/", HttpOnly, Secure, SameSite=Lax).
type Option func(*http.Cookie)

// WithPath overrides the cookie's Path attribute.
func WithPath(path string) Option {
	return func(c *http.Cookie) { c.Path = path }
}

// WithDomain sets the cookie's Domain attribute.
func WithDomain(domain string) Option {
	return func(c *http.Cookie) { c.Domain = domain }
}

// WithMaxAge sets the cookie's MaxAge attribute, in seconds.
func WithMaxAge(seconds int) Option {
	return func(c *http.Cookie) { c.MaxAge = seconds }
}

// WithSameSite overrides the cookie's SameSite attribute.
func WithSameSite(mode http.SameSite) Option {
	return func(c *http.Cookie) { c.SameSite = mode }
}

// WithInsecure disables the Secure attribute, for local HTTP
// development where TLS is not in play.
func WithInsecure() Option {
	return func(c *http.Cookie) { c.Secure = false }
}
