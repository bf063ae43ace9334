// Package config handles configuration loading, parsing, and validation
// from environment variables (VATLINE_ prefixed) and an optional config
// file. It provides type-safe access to the settings of the server, the
// extraction engine, both caches, the processing queue, and the memory
// monitor, while keeping configuration details separate from business
// logic.
package config
