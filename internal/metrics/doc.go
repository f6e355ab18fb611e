/*
Package metrics provides Prometheus-based instrumentation for webqa.

A Collector registers all instruments under one namespace via promauto and
exposes typed Record helpers for the scan lifecycle (scan counts and
durations, ledger commits by severity, workflow verdicts), the oracle
channel (call counts and latency) and the host server's HTTP surface.
Instruments land in the default registry and are served by the /metrics
endpoint in serve mode.
*/
package metrics
