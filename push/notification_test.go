package push

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotification_Form(t *testing.T) {
	body := "brq_statuscode=190&BRQ_AMOUNT=10.00&BRQ_CUSTOMER_NAME=J.+de+Vries&BRQ_AMOUNT=99&empty="

	n, err := ParseNotification("application/x-www-form-urlencoded", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, "190", n.String("BRQ_STATUSCODE"))
	assert.Equal(t, "10.00", n.String("brq_amount"), "first value wins")
	assert.Equal(t, "J. de Vries", n.String("BRQ_CUSTOMER_NAME"))
	assert.True(t, n.Has("EMPTY"))
	assert.Equal(t, []Field{
		{Key: "brq_statuscode", Value: "190"},
		{Key: "BRQ_AMOUNT", Value: "10.00"},
		{Key: "BRQ_CUSTOMER_NAME", Value: "J. de Vries"},
		{Key: "empty", Value: ""},
	}, n.Fields())
}

func TestParseNotification_JSON(t *testing.T) {
	body := `{"BRQ_STATUSCODE":"190","brq_amount":50.00,"BRQ_TEST":true,"BRQ_NULL":null,"BRQ_NESTED":{"a":1},"BRQ_LIST":[1,2],"BRQ_TRANSACTIONS":"TX1"}`

	n, err := ParseNotification("application/json", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, "50.00", n.String("BRQ_AMOUNT"), "numbers keep their literal text")
	assert.True(t, n.Bool("BRQ_TEST"))
	assert.True(t, n.Has("BRQ_NULL"))
	assert.Equal(t, "", n.String("BRQ_NULL"))
	assert.False(t, n.Has("BRQ_NESTED"))
	assert.False(t, n.Has("BRQ_LIST"))

	keys := make([]string, 0)
	for _, f := range n.Fields() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"BRQ_STATUSCODE", "brq_amount", "BRQ_TEST", "BRQ_NULL", "BRQ_TRANSACTIONS"}, keys)
}

func TestParseNotification_JSONDataKey(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{
			name:        "inside_form",
			contentType: "application/x-www-form-urlencoded",
			body:        "json_data_key=" + `%7B%22BRQ_STATUSCODE%22%3A%22490%22%2C%22BRQ_INVOICENUMBER%22%3A%22o1%22%7D`,
		},
		{
			name:        "inside_json",
			contentType: "application/json",
			body:        `{"JSON_DATA_KEY":"{\"BRQ_STATUSCODE\":\"490\",\"BRQ_INVOICENUMBER\":\"o1\"}"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNotification(tt.contentType, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, "490", n.String("BRQ_STATUSCODE"))
			assert.Equal(t, "o1", n.String("BRQ_INVOICENUMBER"))
			assert.False(t, n.Has("JSON_DATA_KEY"))
		})
	}
}

func TestParseNotification_SniffsJSONWithoutContentType(t *testing.T) {
	n, err := ParseNotification("", []byte(`{"BRQ_STATUSCODE":"190"}`))
	require.NoError(t, err)
	assert.Equal(t, "190", n.String("BRQ_STATUSCODE"))
}

func TestParseNotification_Malformed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"empty", "application/json", ""},
		{"whitespace", "application/x-www-form-urlencoded", "   "},
		{"broken_json", "application/json", `{"BRQ_STATUSCODE":`},
		{"json_array", "application/json", `[1,2]`},
		{"bad_escape", "application/x-www-form-urlencoded", "BRQ_AMOUNT=%zz"},
		{"bad_json_data_key", "application/x-www-form-urlencoded", "json_data_key=notjson"},
		{"only_nested", "application/json", `{"a":{"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNotification(tt.contentType, []byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformedNotification)
		})
	}
}

func TestNotification_Accessors(t *testing.T) {
	n := FromMap(map[string]string{
		"BRQ_AMOUNT":        " 12.50 ",
		"BRQ_AMOUNT_CREDIT": "7,25",
		"BRQ_BAD":           "abc",
		"BRQ_TEST":          "TRUE",
		"BRQ_FLAG":          "0",
	})

	assert.Equal(t, "12.50", n.String("brq_amount"))
	assert.Equal(t, "", n.String("BRQ_MISSING"))
	assert.True(t, n.Decimal("BRQ_AMOUNT").Equal(mustDec("12.50")))
	assert.True(t, n.Decimal("BRQ_AMOUNT_CREDIT").Equal(mustDec("7.25")))
	assert.True(t, n.Decimal("BRQ_BAD").IsZero())
	assert.True(t, n.Decimal("BRQ_MISSING").IsZero())
	assert.True(t, n.Bool("BRQ_TEST"))
	assert.False(t, n.Bool("BRQ_FLAG"))
	assert.False(t, n.Bool("BRQ_MISSING"))
	assert.True(t, n.Has(" brq_test "))
}
