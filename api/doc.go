// Package api provides OpenAPI/Swagger documentation for the DeepSearchStack API.
//
// This package contains the API types and related documentation for the
// DeepSearchStack HTTP API.
//
// # API Overview
//
// DeepSearchStack provides a RESTful API for:
//   - Streaming deep-search (search → scrape → retrieve → synthesize)
//   - Quick, non-streaming deep-search
//   - Session management (conversation history)
//   - Chat completions with multi-provider LLM routing
//   - Provider and model management
//   - Health monitoring and metrics
//
// # Authentication
//
// Most API endpoints require authentication via the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// # OpenAPI Specification
//
// No static OpenAPI file is shipped. The swag annotations in
// cmd/deepsearch/main.go can be turned into Swagger documentation with:
//
//	swag init -g cmd/deepsearch/main.go -o api --parseDependency --parseInternal
//
// The server does not mount a Swagger UI or a /swagger route.
package api
