// Package domain contains the core business entities for pdfrag:
// documents, chunks, users, retrieval candidates and access scopes.
// It has no dependencies on adapters or infrastructure.
package domain
