// Package mock provides test doubles for the ai interfaces. The mocks
// generate deterministic embeddings so similarity tests are repeatable,
// and expose function fields for behavior injection.
package mock
