package gateway

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// authorization builds the hmac Authorization header value of one request
func authorization(websiteKey, secret, method string, target *url.URL, body []byte, timestamp int64, nonce string) string {
	var content string
	if len(body) > 0 {
		sum := md5.Sum(body)
		content = base64.StdEncoding.EncodeToString(sum[:])
	}

	uri := strings.ToLower(url.QueryEscape(target.Host + target.EscapedPath()))

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s%s%s%d%s%s", websiteKey, method, uri, timestamp, nonce, content)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("hmac %s:%s:%s:%d", websiteKey, signature, nonce, timestamp)
}
