// Package messaging provides a broker-agnostic API for publishing and
// consuming events.
//
// Use cases depend on the Publisher and Consumer interfaces only. The broker
// (Kafka, NATS or NSQ) is chosen at startup through NewFromDriver, so the
// same event flows unchanged whichever backend a deployment runs.
//
// Every message carries string headers. Kafka and NATS map them to native
// headers; NSQ has none, so its driver wraps headers and body in a small
// JSON frame that the consumer side unwraps transparently.
package messaging
