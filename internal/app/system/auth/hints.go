package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// hintMaxAge keeps the admin hint for as long as a browser is likely to
// come back.
const hintMaxAge = 30 * 24 * time.Hour

// cookieHints is an admingate.HintStore over one signed cookie per key.
// Writes are visible to later reads within the same request.
type cookieHints struct {
	codec   *securecookie.SecureCookie
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	log     *zap.Logger
	pending map[string]*string // nil value means deleted
}

func newCookieHints(codec *securecookie.SecureCookie, w http.ResponseWriter, r *http.Request, secure bool, log *zap.Logger) *cookieHints {
	return &cookieHints{codec: codec, w: w, r: r, secure: secure, log: log, pending: map[string]*string{}}
}

func (h *cookieHints) Get(key string) (string, bool) {
	if v, ok := h.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c, err := h.r.Cookie(key)
	if err != nil {
		return "", false
	}
	var v string
	if err := h.codec.Decode(key, c.Value, &v); err != nil {
		h.log.Debug("admin hint cookie rejected", zap.Error(err))
		return "", false
	}
	return v, true
}

func (h *cookieHints) Set(key, value string) error {
	if cur, ok := h.Get(key); ok && cur == value {
		return nil
	}
	encoded, err := h.codec.Encode(key, value)
	if err != nil {
		return err
	}
	h.replaceCookie(&http.Cookie{
		Name:     key,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(hintMaxAge.Seconds()),
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.pending[key] = &value
	return nil
}

func (h *cookieHints) Delete(key string) error {
	h.replaceCookie(&http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.pending[key] = nil
	return nil
}

// replaceCookie sets c, dropping any earlier Set-Cookie for the same name in
// this response so the client sees only the final value.
func (h *cookieHints) replaceCookie(c *http.Cookie) {
	hdr := h.w.Header()
	prefix := c.Name + "="
	kept := hdr["Set-Cookie"][:0]
	for _, v := range hdr["Set-Cookie"] {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		hdr.Del("Set-Cookie")
	} else {
		hdr["Set-Cookie"] = kept
	}
	http.SetCookie(h.w, c)
}
