// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config provides configuration loading, merging, and validation
// for the broker.
//
// Configuration is assembled from several sources. For every field the first
// source that sets a non-zero value wins:
//  1. Command-line flags
//  2. Environment variables (a .env file in the working directory is loaded
//     into the environment first, without overriding real variables)
//  3. JSON config file (path from -c / -config or CONFIG)
//  4. Built-in defaults
//
// The merged result is checked with go-playground/validator plus a few
// cross-field rules before [GetStructuredConfig] returns it.
package config
