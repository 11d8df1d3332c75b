// Package handler provides the HTTP handlers of brqpay.
//
// Handlers translate HTTP requests into calls on the order, push and refund services and
// render results with the infra/response envelope:
//
//   - OrderHandler: registers shop orders and reports their payment status
//   - PushHandler: accepts gateway push notifications (JSON or form encoded)
//   - RefundHandler: validates refund requests and reports one result per refunded payment
//   - LogsHandler: reads push and refund audit entries from OpenSearch
//   - HealthHandler: reports database, disk and memory health
//
// # Push Handler
//
//	pushHandler := handler.NewPushHandler(pushService)
//	r.Post("/push", pushHandler.HandlePush)
//
// A push that fails signature verification is answered with 200 and success=false so
// the gateway does not keep retrying a message that will never verify. Unknown orders
// get 404 and processing failures 500, both of which the gateway retries.
//
// # Order Handler
//
//	orderHandler := handler.NewOrderHandler(order.NewService(store, locker), validator.New())
//	r.Put("/v1/orders/{orderID}", orderHandler.UpsertOrder)
//
// An order has to be registered before its pushes can be applied. Repeating the PUT
// updates the shop-owned fields; payment status only changes through pushes and refunds.
// A number that already belongs to another order id is answered with 409.
//
// # Refund Handler
//
//	refundHandler := handler.NewRefundHandler(refundService, validator.New())
//	r.Post("/v1/orders/{orderID}/refunds", refundHandler.RefundOrder)
//
// Request body:
//
//	{
//	  "amount": "25.00",
//	  "items": {"line-1": 1}
//	}
//
// Integrity failures (amount above the refundable total, unknown items, orders that
// cannot be refunded) are reported with 422 and the error code as message.
//
// # Logs Handler
//
//	GET /v1/logs/{kind}?status=failed&method=ideal&hours=48
//	GET /v1/logs/{kind}/errors?hours=24
//	GET /v1/orders/{orderID}/logs
//
// kind is "push" or "refund". The routes are mounted only when OpenSearch logging is
// enabled; a logger that reports ErrLoggingDisabled is answered with 503.
package handler
