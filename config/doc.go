// Copyright 2026 DeepSearchStack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config provides configuration management for DeepSearchStack.

# Overview

config owns the full configuration lifecycle: multi-source loading, runtime
hot reload, change auditing, and an HTTP management API. Configuration merges
in "defaults -> YAML file -> environment variables" priority order.

# Core types

  - Config: top-level aggregate covering Server, RateLimit, Search, Scraping,
    RAG, Synthesis, Cache, Sessions, Service, Services, Redis, Database, LLM,
    JWT, Log, and Telemetry
  - Loader: builder-pattern loader for chaining config path, env prefix, and
    custom validators
  - HotReloadManager: hot-reload manager supporting file watching, partial
    field updates, change callbacks, and a change log; it keeps no earlier
    config versions and has no rollback
  - FileWatcher: poll + debounce file-change watcher that triggers reloads
  - ConfigAPIHandler: HTTP handler exposing config inspection, update,
    manual-reload, and change-history endpoints

# Capabilities

  - Multi-source loading: YAML file, environment variables (DEEPSEARCH_
    prefix), defaults
  - Hot reload: automatic reload on file change, or manual trigger via API,
    with field-level granularity
  - Security: sensitive-field redaction (SanitizedConfig), API key via the
    X-API-Key header or the api_key query parameter, CORS control
  - Change audit: change log holding the most recent 1000 changes; there is
    no version tracking or rollback
  - Validation: built-in base checks (Config.Validate) plus custom
    validators added with Loader.WithValidator

# Example

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		WithEnvPrefix("DEEPSEARCH").
		Load()
*/
package config
