// Package event holds the messages modules exchange over the broker.
package event

// HeaderCorrelationID carries the publisher's correlation ID so consumer
// logs can be joined with the request that caused them.
const HeaderCorrelationID string = "cID"
