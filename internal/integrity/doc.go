// Package integrity computes deterministic fingerprints over audit reports.
//
// A stamp is a SHA-256 digest over the report's content bound to its id,
// target and timestamp. It detects accidental or local tampering only; there
// is no external ledger and no third-party attestation. Certificates and
// review proposals are in-process stubs built on the same hashes.
package integrity
