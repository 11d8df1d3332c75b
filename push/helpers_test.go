package push

import (
	"github.com/shopspring/decimal"
)

const (
	testWebsiteKey = "WEBSITE123"
	testSecret     = "s3cr3t"
)

func mustDec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// signed returns the notification of fields with a valid BRQ_SIGNATURE appended
func signed(fields map[string]string) *Notification {
	if _, ok := fields["BRQ_WEBSITEKEY"]; !ok {
		fields["BRQ_WEBSITEKEY"] = testWebsiteKey
	}
	v := NewVerifier(testWebsiteKey, testSecret)
	n := FromMap(fields)
	all := n.Fields()
	all = append(all, Field{Key: "BRQ_SIGNATURE", Value: v.Sign(n)})
	return NewNotification(all)
}

func requestFor(fields map[string]string) *Request {
	return NewRequest(FromMap(fields))
}
