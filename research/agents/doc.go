// Package agents implements the three research stages on top of an llm
// backend. Each stage is a provider.Adapt bridge: the research type is
// rendered into a prompt, sent as a completion request, and the reply is
// decoded back into the research type.
package agents
