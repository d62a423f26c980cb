package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	echo "github.com/labstack/echo/v4"
)

const signatureHeader = "X-Twilio-Signature"

// Signature computes the provider webhook signature: base64 HMAC-SHA1 over the
// full request URL followed by every form key and value, keys sorted.
func Signature(authToken, fullURL string, form url.Values) string {
	var b strings.Builder
	b.WriteString(fullURL)
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range form[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignatureMiddleware rejects webhook requests that are not signed with
// authToken. baseURL is the public origin the provider calls, since the
// request may arrive through a proxy. JSON bodies are covered through the
// bodySHA256 query parameter, which the signed URL carries.
// With an empty token every request is refused.
func SignatureMiddleware(authToken, baseURL string) echo.MiddlewareFunc {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(signatureHeader)
			if authToken == "" || got == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "missing signature"})
			}

			req := c.Request()
			origin := baseURL
			if origin == "" {
				origin = c.Scheme() + "://" + req.Host
			}
			fullURL := origin + req.RequestURI

			var form url.Values
			if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				body, err := io.ReadAll(req.Body)
				if err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
				}
				req.Body = io.NopCloser(bytes.NewReader(body))
				sum := sha256.Sum256(body)
				want := req.URL.Query().Get("bodySHA256")
				if !hmac.Equal([]byte(strings.ToLower(want)), []byte(hex.EncodeToString(sum[:]))) {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid signature"})
				}
			} else {
				if _, err := c.FormParams(); err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid form"})
				}
				// FormParams merges the query; only the body is signed as params
				form = req.PostForm
			}

			if !hmac.Equal([]byte(got), []byte(Signature(authToken, fullURL, form))) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid signature"})
			}
			return next(c)
		}
	}
}
