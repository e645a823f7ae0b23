// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion, retrieval, answering, diffing and evaluation live here;
// storage, vectors, embeddings and answer providers are reached only
// through driven ports.
package services
