// Package llm is the chat-completion layer behind the research stage
// adapters.
//
// A backend is a Client, the provider contract over CompletionRequest and
// CompletionResponse. HTTP backends are an Adapter plus a Dialect that
// maps the universal types to one vendor's wire format; dialects and other
// backends register themselves from init:
//
//	import (
//	    "github.com/kbukum/deepresearch/llm"
//	    _ "github.com/kbukum/deepresearch/llm/ollama"
//	)
//
//	client, err := llm.Open(llm.Config{Backend: "ollama", Model: "qwen2.5:7b"})
//	text, err := llm.Complete(ctx, client, system, user)
package llm
