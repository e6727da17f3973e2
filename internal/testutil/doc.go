// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing agent channels and observing engine
// output. These helpers are intentionally minimal and not intended for
// production usage.
package testutil
