// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package vault reads KeePass (KDBX) databases and serves the read-only
// projections the UI needs: the group tree, entries of a group, a single
// entry, one protected value, search results and custom icons.
//
// A decoded vault is flattened into [Database], a plain JSON-serializable
// value that the service layer seals into the credential cache between
// requests. Vault files come from a [Source]: the filesystem, an HTTP
// endpoint or, in tests, memory.
package vault
