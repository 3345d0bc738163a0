package oracle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type responseMessage struct {
	Role         string        `json:"role"`
	Content      *string       `json:"content"`
	ToolCalls    []toolCall    `json:"tool_calls"`
	FunctionCall *functionCall `json:"function_call"`
}

type chatResponse struct {
	Choices []struct {
		Message responseMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

var (
	errNoChoices     = errors.New("response has no choices")
	errNoAnswer      = errors.New("response carries neither content nor a function call")
	errMissingColumn = errors.New(`answer has no "column" field`)
	errNotInteger    = errors.New(`"column" is not an integer`)
)

// columnFromResponse takes the column from a function call when one is
// present and from the message content otherwise.
func columnFromResponse(resp chatResponse) (int, error) {
	if resp.Error != nil {
		return -1, fmt.Errorf("oracle error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return -1, errNoChoices
	}

	msg := resp.Choices[0].Message
	for _, call := range msg.ToolCalls {
		if call.Function.Name == functionName || call.Function.Name == "" {
			return parseColumn(call.Function.Arguments)
		}
	}
	if msg.FunctionCall != nil {
		return parseColumn(msg.FunctionCall.Arguments)
	}
	if msg.Content != nil && strings.TrimSpace(*msg.Content) != "" {
		return parseColumn(*msg.Content)
	}
	return -1, errNoAnswer
}

// parseColumn reads {"column": n} out of free text. Code fences and prose
// around the object are tolerated; the value must be a JSON integer.
func parseColumn(text string) (int, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return -1, fmt.Errorf("no JSON object in answer %q", truncate(text, 80))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return -1, fmt.Errorf("decode answer: %w", err)
	}

	raw, ok := fields["column"]
	if !ok {
		return -1, errMissingColumn
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return -1, errNotInteger
	}
	n, err := strconv.ParseInt(string(raw), 10, 32)
	if err != nil {
		return -1, errNotInteger
	}
	return int(n), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
