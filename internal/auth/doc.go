// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package auth implements the pluggable identity backends of the broker.
//
// A [Backend] turns credentials (or a federated callback) into a
// [models.Identity]. Exactly one backend is active per process; it is built
// by [New] from configuration, validated with ValidateConfig and initialized
// once with Init. Whatever Init returns is kept in a [Cache] and handed back
// to every later call.
//
// Backends never touch the session. Flow data that must survive a redirect
// is returned in [models.LoginType.State] and stored by the caller.
package auth
