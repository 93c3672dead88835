package llm

import "strings"

type completionRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type completionChoice struct {
	Message replyMessage `json:"message"`
	// Some providers answer with the streaming shape even when stream=false.
	Delta replyMessage `json:"delta"`
	// Completion-style providers put the answer here.
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type replyMessage struct {
	Content   string `json:"content"`
	ToolCalls []struct {
		Function functionCall `json:"function"`
	} `json:"tool_calls"`
	FunctionCall *functionCall `json:"function_call"`
	Refusal      string        `json:"refusal"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// arguments returns the first non-empty function or tool call payload.
func (m replyMessage) arguments() string {
	if m.FunctionCall != nil {
		if args := strings.TrimSpace(m.FunctionCall.Arguments); args != "" {
			return args
		}
	}
	for _, call := range m.ToolCalls {
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

type picked struct {
	content      string
	finishReason string
	refusal      string
}

// pick scans choices for usable output. Plain content wins over function
// arguments within a choice; earlier choices win over later ones.
func (r completionResponse) pick() picked {
	var out picked
	for _, choice := range r.Choices {
		if out.finishReason == "" {
			out.finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if out.refusal == "" {
			out.refusal = firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
		}
		out.content = firstNonEmpty(
			choice.Message.Content,
			choice.Delta.Content,
			choice.Text,
			choice.Message.arguments(),
			choice.Delta.arguments(),
		)
		if out.content != "" {
			return out
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
