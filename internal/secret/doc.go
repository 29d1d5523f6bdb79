// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package secret holds the short-lived symmetric keys that decrypt cached
// vault blobs.
//
// Key material never enters the session cookie or the blob cache. It lives in
// a KeyStore: the Linux kernel keyring where available, or a memguard-backed
// in-process store with its own TTL sweeper elsewhere. Both enforce expiry
// independently of the blob cache and both support explicit revocation.
package secret
