package gateway

import (
	"net"
	"strconv"

	"github.com/shopspring/decimal"
)

// Client IP types
const (
	IPv4 = 0
	IPv6 = 1
)

// ClientIP is the shopper address sent with a transaction
type ClientIP struct {
	Type    int    `json:"Type"`
	Address string `json:"Address"`
}

// NewClientIP classifies address as IPv4 or IPv6
func NewClientIP(address string) ClientIP {
	ipType := IPv4
	if ip := net.ParseIP(address); ip != nil && ip.To4() == nil {
		ipType = IPv6
	}
	return ClientIP{Type: ipType, Address: address}
}

// Parameter is a named service parameter. GroupType and GroupID bundle article lines.
type Parameter struct {
	Name      string `json:"Name"`
	GroupType string `json:"GroupType,omitempty"`
	GroupID   string `json:"GroupID,omitempty"`
	Value     string `json:"Value"`
}

// Service is one gateway service invoked by a transaction
type Service struct {
	Name       string      `json:"Name"`
	Action     string      `json:"Action"`
	Version    int         `json:"Version"`
	Parameters []Parameter `json:"Parameters,omitempty"`
}

// AddArticle appends the fields of one article line under group id
func (s *Service) AddArticle(groupType, groupID string, fields []Parameter) {
	for _, f := range fields {
		f.GroupType = groupType
		f.GroupID = groupID
		s.Parameters = append(s.Parameters, f)
	}
}

type ServiceList struct {
	ServiceList []Service `json:"ServiceList"`
}

type AdditionalParameter struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type AdditionalParameters struct {
	AdditionalParameter []AdditionalParameter `json:"AdditionalParameter"`
}

// TransactionRequest is the body of POST /json/Transaction
type TransactionRequest struct {
	Currency               string                `json:"Currency"`
	AmountCredit           decimal.Decimal       `json:"AmountCredit"`
	Invoice                string                `json:"Invoice"`
	Order                  string                `json:"Order,omitempty"`
	ReturnURL              string                `json:"ReturnURL,omitempty"`
	ReturnURLError         string                `json:"ReturnURLError,omitempty"`
	PushURL                string                `json:"PushURL,omitempty"`
	ClientIP               ClientIP              `json:"ClientIP"`
	OriginalTransactionKey string                `json:"OriginalTransactionKey"`
	Services               ServiceList           `json:"Services"`
	AdditionalParameters   *AdditionalParameters `json:"AdditionalParameters,omitempty"`
}

// AddAdditionalParameter attaches a name/value pair that is echoed back in pushes
func (r *TransactionRequest) AddAdditionalParameter(name, value string) {
	if r.AdditionalParameters == nil {
		r.AdditionalParameters = &AdditionalParameters{}
	}
	r.AdditionalParameters.AdditionalParameter = append(r.AdditionalParameters.AdditionalParameter,
		AdditionalParameter{Name: name, Value: value})
}

// Service returns the first service of the request, nil when there is none
func (r *TransactionRequest) Service() *Service {
	if len(r.Services.ServiceList) == 0 {
		return nil
	}
	return &r.Services.ServiceList[0]
}

type StatusCode struct {
	Code        int    `json:"Code"`
	Description string `json:"Description"`
}

type Status struct {
	Code     StatusCode `json:"Code"`
	SubCode  StatusCode `json:"SubCode"`
	DateTime string     `json:"DateTime"`
}

type RequestError struct {
	Name         string `json:"Name,omitempty"`
	Service      string `json:"Service,omitempty"`
	ErrorCode    string `json:"ErrorCode"`
	ErrorMessage string `json:"ErrorMessage"`
}

type RequestErrors struct {
	ChannelErrors   []RequestError `json:"ChannelErrors"`
	ServiceErrors   []RequestError `json:"ServiceErrors"`
	ActionErrors    []RequestError `json:"ActionErrors"`
	ParameterErrors []RequestError `json:"ParameterErrors"`
	CustomErrors    []RequestError `json:"CustomErrors"`
}

func (e *RequestErrors) first() *RequestError {
	if e == nil {
		return nil
	}
	for _, list := range [][]RequestError{e.ChannelErrors, e.ServiceErrors, e.ActionErrors, e.ParameterErrors, e.CustomErrors} {
		if len(list) > 0 {
			return &list[0]
		}
	}
	return nil
}

// TransactionResponse is the gateway answer to a TransactionRequest
type TransactionResponse struct {
	Key                    string          `json:"Key"`
	Status                 Status          `json:"Status"`
	Invoice                string          `json:"Invoice"`
	Currency               string          `json:"Currency"`
	AmountCredit           decimal.Decimal `json:"AmountCredit"`
	TransactionType        string          `json:"TransactionType"`
	ServiceCode            string          `json:"ServiceCode"`
	IsTest                 bool            `json:"IsTest"`
	RelatedTransactions    []Related       `json:"RelatedTransactions,omitempty"`
	OriginalTransactionKey string          `json:"OriginalTransactionKey,omitempty"`
	RequestErrors          *RequestErrors  `json:"RequestErrors,omitempty"`
}

type Related struct {
	RelationType          string `json:"RelationType"`
	RelatedTransactionKey string `json:"RelatedTransactionKey"`
}

// StatusCode returns the status code as the string form used by pushes
func (r *TransactionResponse) StatusCode() string {
	return strconv.Itoa(r.Status.Code.Code)
}

// Message returns the first request error, falling back to the sub code or status description
func (r *TransactionResponse) Message() string {
	if e := r.RequestErrors.first(); e != nil {
		return e.ErrorMessage
	}
	if r.Status.SubCode.Description != "" {
		return r.Status.SubCode.Description
	}
	return r.Status.Code.Description
}
