// Package domain holds ragvault's entities and sentinel errors.
//
// A Document is a corpus file with an append-only list of versions; exactly
// one version is active. Each version is cut into Chunks, the unit that gets
// embedded, retrieved and diffed. RetrievedContext is a chunk that passed
// the confidence gate, and DiffReport compares two versions chunk by chunk.
//
// domain imports only the standard library and every other package may
// import it.
package domain
