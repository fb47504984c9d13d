package port

import "errors"

// Sentinel errors used across ports.
var (
	// ErrIndexUnavailable means no embedding matrix has been built yet.
	// Retrieval surfaces this so callers can answer with a clear
	// message instead of a server error.
	ErrIndexUnavailable = errors.New("no embeddings found, run the indexer first")

	// ErrCorpusMisaligned means the persisted chunk-id sequence and the
	// embedding matrix disagree. Serving such a corpus would silently
	// return wrong metadata, so loading refuses it outright.
	ErrCorpusMisaligned = errors.New("corpus store misaligned: id sequence does not match embedding matrix")

	// ErrNoProviderAvailable means every configured answer provider
	// failed, or none is configured at all.
	ErrNoProviderAvailable = errors.New("no answer provider available")
)
