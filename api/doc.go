// Package api defines the request and response types of the webqa serve
// mode. Handlers live in the handlers subpackage; this package stays free of
// HTTP machinery so clients can import the DTOs alone.
package api
