// Package mail sends email through an SMTP relay.
//
// Callers depend on the Mail interface and the provider-agnostic Message so
// security alerts can be delivered without knowing how the relay is reached.
package mail
