// Package openai holds the chat-completions wire types and a thin HTTP client
// for the OpenAI-compatible endpoint the scanner proxies to. The caller's API
// key is passed per request and never stored.
package openai

import "encoding/json"

// ChatRequest is a chat-completions request. Content-bearing fields the proxy
// never inspects (tools, tool_choice, response_format) stay raw so vendor
// schema changes pass through untouched.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Tools          json.RawMessage `json:"tools,omitempty"`
	ToolChoice     json.RawMessage `json:"tool_choice,omitempty"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

// Message is one transcript entry. Content is raw because user messages may
// carry multimodal part arrays (text plus image payloads) while assistant and
// tool messages carry plain strings.
type Message struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// TextMessage builds a plain-text message for the given role.
func TextMessage(role, text string) Message {
	content, _ := json.Marshal(text)
	return Message{Role: role, Content: content}
}

// ToolMessage builds the tool-result message answering a tool call.
func ToolMessage(callID, name, content string) Message {
	raw, _ := json.Marshal(content)
	return Message{Role: "tool", ToolCallID: callID, Name: name, Content: raw}
}

// ToolCall is a model-requested invocation of a local function.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResponse is the subset of the completions response the proxy inspects.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage"`
}

// Choice is one completion candidate.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage is the token accounting reported by the model.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolCalls returns the tool calls of the first choice, if any.
func (r *ChatResponse) ToolCalls() []ToolCall {
	if len(r.Choices) == 0 {
		return nil
	}
	return r.Choices[0].Message.ToolCalls
}
