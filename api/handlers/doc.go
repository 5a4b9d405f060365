// Copyright (c) DeepSearchStack Authors.
// Licensed under the MIT License.

/*
Package handlers provides the request handlers behind the DeepSearchStack
HTTP boundary.

# Overview

handlers implements every HTTP endpoint's request logic: streaming and
quick deep search, session CRUD, provider introspection, single-call
completions, and health checks, all behind a uniform response/error
envelope. Every handler is a plain net/http handler, documented via
Swagger annotations.

# Core types

  - DeepSearchHandler — runs the search/scrape/retrieve/synthesize
    pipeline, streamed (SSE) or buffered
  - SessionHandler     — session CRUD over the pluggable session.Store
  - ProvidersHandler    — lists registered search and LLM providers
  - CompletionHandler   — single-call chat completion through the LLM router
  - HealthHandler       — service health checks (/health, /healthz, /ready)
  - Response            — uniform JSON response envelope (success + data + error + timestamp)
  - ErrorInfo           — structured error information (code, message, retryable)
  - ResponseWriter      — wraps http.ResponseWriter to capture the status code
  - HealthCheck         — pluggable health check interface (database, Redis, ...)

# Capabilities

  - Uniform responses: WriteSuccess / WriteError / WriteJSON helpers
  - Request validation: DecodeJSONBody (1 MB limit, strict mode), ValidateContentType
  - ErrorCode -> HTTP status mapping (4xx/5xx)
  - SSE streaming: DeepSearchHandler.HandleStream emits text/event-stream
  - Extensible health checks: RegisterCheck for custom HealthCheck implementations
*/
package handlers
