// Package messaging publishes and consumes security events over a broker.
//
// NATS and Kafka are supported for deployments; the in-process Memory broker
// backs tests and single-node setups. Business code only sees the Publisher,
// Consumer and Message types.
package messaging
