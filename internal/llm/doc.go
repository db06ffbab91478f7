// Package llm wraps the language model used to classify emails.
//
// The model is treated as an opaque text completion capability: a prompt goes
// in, raw text comes out. The Ollama implementation talks to a locally hosted
// server through the official Ollama Go client and always requests the full
// completion, concatenating fragments when streaming is enabled.
//
// Every backend failure wraps ErrCompletion so callers can tell a broken model
// apart from output that is merely malformed.
package llm
