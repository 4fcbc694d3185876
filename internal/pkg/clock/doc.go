// Package clock abstracts the wall clock.
//
// Lockout windows, SMS challenge expiry, and TOTP time steps all read the
// current time through Clocker so tests can pin or advance it.
package clock
