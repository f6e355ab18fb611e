// Package tlsutil provides the hardened TLS configuration shared by every
// outbound HTTP client in webqa (oracle calls, link probing, header checks):
// TLS 1.2+, AEAD cipher suites only.
package tlsutil
