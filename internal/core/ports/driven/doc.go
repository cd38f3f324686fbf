// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Splitter / Tokenizer: Token-bounded chunking
//   - Oracle: Summarises one chunk (backed by an LLMService)
//   - LLMService: Provider chat client (OpenAI, Anthropic, Gemini, Ollama)
//   - SubtitleFetcher: Fetches a channel's subtitled videos
//   - Saver: Persists a finished description
//   - DescriptionHistory: Lists saved descriptions
//   - ConfigStore: Application configuration
//   - PromptStore: System prompts
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
