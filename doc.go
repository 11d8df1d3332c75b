// Package brqpay processes Buckaroo-style gateway traffic for a shop backend: it verifies
// and applies push notifications to orders and a transaction ledger, and it sends refund
// requests back to the gateway.
//
// # Overview
//
// The gateway reports every payment, authorization, capture and refund through a push
// notification. brqpay authenticates the push, maps it to a typed request, updates the
// transaction ledger and moves the order through its payment states. Refunds travel the
// other way: an operator asks for an amount, brqpay spreads it over the refundable
// payment entries and sends one signed request per entry.
//
// # Architecture
//
//	┌─────────────────┐  push   ┌─────────────────┐  refund  ┌─────────────────┐
//	│                 │────────►│                 │─────────►│                 │
//	│    Gateway      │         │     brqpay      │          │    Gateway      │
//	│   (pushes)      │         │ (orders/ledger) │◄─────────│   (JSON API)    │
//	└─────────────────┘         └─────────────────┘ response └─────────────────┘
//
// # Packages
//
//   - order: orders, order intake, payment status transitions, integrity errors and the per-order lock
//   - ledger: append-only transaction entries and the refund bookkeeping over them
//   - push: notification parsing, signature checks, request typing and method processors
//   - refund: request building, article lines, response handling and the refund service
//   - gateway: the signed HTTP client for the gateway transaction API
//   - infra/storage: SQLite persistence for orders and ledger entries
//   - handler, router: the HTTP surface
//
// # HTTP API
//
//	# Gateway push (signature checked, no API key)
//	POST /push
//
//	# Register or update an order placed by the shop
//	PUT /v1/orders/{orderID}
//	Body:
//	  {"number": "10001", "currency": "EUR", "total": "100.00", "paymentMethod": "ideal"}
//
//	# Read an order with its payment status
//	GET /v1/orders/{orderID}
//
//	# Refund an order
//	POST /v1/orders/{orderID}/refunds
//	Headers:
//	  Authorization: Bearer your-api-key
//	  Content-Type: application/json
//	Body:
//	  {"amount": "25.00", "items": {"line-1": 1}}
//
//	# Audit trail (only when OpenSearch logging is enabled)
//	GET /v1/orders/{orderID}/logs
//	GET /v1/logs/{kind}
//	GET /v1/logs/{kind}/errors
//
//	# Health
//	GET /health
//
// # Configuration
//
// Settings are read from the environment (a .env file is loaded when present):
//
//	BRQ_WEBSITE_KEY=...
//	BRQ_SECRET_KEY=...
//	BRQ_GATEWAY_URL=https://testcheckout.buckaroo.nl
//	BRQ_MODE=test            # "live" ignores test pushes
//	BRQ_PUSH_URL=https://shop.example.com/push
//	API_KEY=...
//	DB_PATH=data/brqpay.db
//	ENABLE_OPENSEARCH_LOGGING=false
package brqpay
