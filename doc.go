// Package main is the entry point of logmonitor, a multi-tenant log collector.
// Clients push log lines over HTTP with a per-user bearer token; every line is
// stored, streamed to the live dashboard over a websocket, optionally
// forwarded by email and eventually purged by the retention sweeper.
package main
