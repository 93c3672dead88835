// Package llm is the chat-completion drafting backend used when
// agent.backend is "api".
//
// Client.Draft sends the system and user prompts in JSON mode and returns the
// model's payload; Client.HealthCheck backs `ticketsmith doctor`. Responses
// are accepted from message content, the streaming delta shape, legacy text
// completions, and function or tool call arguments. DecodeLLMJSON tolerates
// code fences and prose around the JSON.
//
// Requests are retried under a retry.Policy on HTTP 408/429/5xx, empty
// completions, and network timeouts. A Retry-After header overrides the
// computed backoff. Context cancellation stops retrying immediately.
package llm
