// Package observability builds the process logger from configuration.
package observability
