// Package programs hosts the media provenance programs (deepfake-storage,
// originality-storage and decentralized-post) and the workspace that resolves
// them by name or program ID.
//
// A Program is a table of instructions. Each instruction declares the
// accounts it expects; Execute validates the supplied account metas against
// that declaration, decodes the Anchor instruction data and runs the handler
// against an AccountStore.
package programs
