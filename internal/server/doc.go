// Package server hosts the assistant's HTTP surfaces.
//
// The APIServer serves the conversational REST API: POST /chat runs one
// turn through the agent, GET /health reports application state, and
// the /sessions endpoints expose and clear the in-process session
// registry. The MetricsServer serves Prometheus metrics and Kubernetes
// probe endpoints on a separate port so operational traffic stays off
// the chat API. ServerContext ties the two to the shared agent, session
// registry and metrics recorder and carries the shutdown signal.
package server
