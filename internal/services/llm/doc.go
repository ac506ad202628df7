// Package llm provides an OpenRouter-compatible chat client used to generate
// spoken track introductions.
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title, temperature, and
// timeout are optional. When unconfigured, announcement cycles fail per track
// while the rest of the daemon keeps running.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the assistant's prose reply.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts, and empty
// completions with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). A Retry-After header overrides the computed delay. Context
// cancellation aborts retries immediately.
package llm
