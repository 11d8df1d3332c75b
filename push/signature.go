package push

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Verifier checks push signatures against the shop's website key and secret
type Verifier struct {
	websiteKey string
	secret     string
}

// NewVerifier creates a Verifier; both values are trimmed
func NewVerifier(websiteKey, secret string) *Verifier {
	return &Verifier{
		websiteKey: strings.TrimSpace(websiteKey),
		secret:     strings.TrimSpace(secret),
	}
}

// Verify reports whether n was signed with the configured secret. A foreign website
// key fails without computing a digest.
func (v *Verifier) Verify(n *Notification) bool {
	if v.websiteKey == "" || n.String("BRQ_WEBSITEKEY") != v.websiteKey {
		return false
	}

	received := n.String("BRQ_SIGNATURE")
	if received == "" {
		received = n.String("ADD_SIGNATURE")
	}
	if received == "" {
		return false
	}

	expected := v.Sign(n)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(received)), []byte(expected)) == 1
}

// Sign returns the hex SHA-1 signature the gateway computes for n
func (v *Verifier) Sign(n *Notification) string {
	sum := sha1.Sum([]byte(signingString(n) + v.secret))
	return hex.EncodeToString(sum[:])
}

// signingString joins the signed "key=value" pairs in gateway order
func signingString(n *Notification) string {
	decode := !strings.EqualFold(n.String("BRQ_TRANSACTION_METHOD"), "payconiq")

	var pairs []string
	for _, f := range n.fields {
		upper := strings.ToUpper(f.Key)
		if strings.Contains(upper, "SIGNATURE") {
			continue
		}
		if !strings.HasPrefix(upper, "BRQ_") && !strings.HasPrefix(upper, "ADD_") && !strings.HasPrefix(upper, "CUST") {
			continue
		}

		value := f.Value
		if decode {
			if decoded, err := url.QueryUnescape(value); err == nil {
				value = decoded
			}
		}
		pairs = append(pairs, f.Key+"="+value)
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return compareSigningKeys(pairs[i], pairs[j]) < 0
	})
	return strings.Join(pairs, "")
}

const (
	classPunct = iota
	classDigit
	classLetter
)

func charClass(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return classDigit
	case c >= 'a' && c <= 'z':
		return classLetter
	}
	return classPunct
}

// compareSigningKeys orders strings character by character, ignoring case:
// punctuation before digits before letters, then by character value. Multi-digit
// numbers compare character-wise ("10" before "9"), as the gateway does.
func compareSigningKeys(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for i := 0; i < len(a) && i < len(b); i++ {
		ca, cb := a[i], b[i]
		if ca == cb {
			continue
		}
		if cla, clb := charClass(ca), charClass(cb); cla != clb {
			return cla - clb
		}
		if ca < cb {
			return -1
		}
		return 1
	}
	return len(a) - len(b)
}
