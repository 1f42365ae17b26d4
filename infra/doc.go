// Package infra contains technical adapters: the MQTT publisher, metrics
// sinks, routing clients and caches, and dataset loaders. These packages
// depend only on the interfaces defined in the core packages.
package infra
