// Package dataset loads the campus network and demand predictions from disk:
// stop coordinates and demand as CSV, routes and frequency bands as YAML or
// JSON.
package dataset
