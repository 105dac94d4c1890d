// Package openai implements the ai interfaces against OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM and similar). Embeddings use the
// embeddings endpoint; answer synthesis uses the chat endpoint.
package openai
