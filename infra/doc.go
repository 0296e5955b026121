// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, the MQTT broadcaster, Prometheus and InfluxDB sinks and Sentry.
// Nothing under core imports these packages.
package infra
