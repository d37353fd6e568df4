// Package textproc contains the pure text-processing stages of the
// ingestion pipeline: page cleaning, section detection and chunking.
// All functions are synchronous, CPU-bound and free of shared state,
// so they are safe to run concurrently across documents.
package textproc
