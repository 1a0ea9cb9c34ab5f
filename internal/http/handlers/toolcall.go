package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// The voice platform wraps every tool invocation in a message envelope.
// Depending on the assistant configuration the tool call arrives as
// message.toolCalls[0], message.toolCallList[0] or message.functionCall,
// and the arguments may be a JSON object or a JSON-encoded string. The
// parser tolerates all of them.

type toolEnvelope struct {
	Message struct {
		ToolCalls    []toolCall    `json:"toolCalls"`
		ToolCallList []toolCall    `json:"toolCallList"`
		FunctionCall *functionCall `json:"functionCall"`
		Call         struct {
			Customer struct {
				Number string `json:"number"`
			} `json:"customer"`
		} `json:"call"`
	} `json:"message"`
}

type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type functionCall struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters"`
}

// ToolInvocation is one decoded tool call.
type ToolInvocation struct {
	ID          string
	Name        string
	Args        map[string]any
	CallerPhone string
}

// Arg returns the named string argument, or "" when absent or non-string.
func (t *ToolInvocation) Arg(key string) string {
	if t == nil || t.Args == nil {
		return ""
	}
	s, _ := t.Args[key].(string)
	return strings.TrimSpace(s)
}

// Phone returns the phone argument, falling back to the caller ID carried
// in the call metadata.
func (t *ToolInvocation) Phone() string {
	if p := t.Arg("phone"); p != "" {
		return p
	}
	return t.CallerPhone
}

func parseToolInvocation(body []byte) (*ToolInvocation, error) {
	var env toolEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("handlers: decode envelope: %w", err)
	}

	inv := &ToolInvocation{CallerPhone: env.Message.Call.Customer.Number}

	var raw json.RawMessage
	switch {
	case len(env.Message.ToolCalls) > 0:
		tc := env.Message.ToolCalls[0]
		inv.ID = tc.ID
		inv.Name = tc.Function.Name
		raw = tc.Function.Arguments
	case len(env.Message.ToolCallList) > 0:
		tc := env.Message.ToolCallList[0]
		inv.ID = tc.ID
		inv.Name = tc.Function.Name
		raw = tc.Function.Arguments
	case env.Message.FunctionCall != nil:
		inv.Name = env.Message.FunctionCall.Name
		raw = env.Message.FunctionCall.Parameters
	}

	args, err := decodeArguments(raw)
	if err != nil {
		return nil, err
	}
	inv.Args = args
	return inv, nil
}

// decodeArguments accepts either a JSON object or a JSON string that itself
// contains an encoded object.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	args := map[string]any{}
	if err := json.Unmarshal(raw, &args); err == nil {
		return args, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("handlers: decode arguments: %w", err)
	}
	if encoded == "" {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal([]byte(encoded), &args); err != nil {
		return nil, fmt.Errorf("handlers: decode argument string: %w", err)
	}
	return args, nil
}

type toolResult struct {
	ToolCallID string `json:"toolCallId,omitempty"`
	Result     string `json:"result"`
}

type toolResponse struct {
	Results []toolResult `json:"results"`
}

// writeToolResult sends the spoken sentence back to the voice platform.
// The platform treats any non-200 as a tool failure and apologizes to the
// caller, so the status is always 200 and errors ride in the sentence.
func writeToolResult(w http.ResponseWriter, logger *logging.Logger, toolCallID, sentence string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := toolResponse{Results: []toolResult{{ToolCallID: toolCallID, Result: sentence}}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to write tool result", "error", err)
	}
}

// dateTimeLayouts covers the formats the assistant's LLM produces for
// dateTime arguments.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"January 2, 2006 3:04 PM",
	"January 2 2006 3:04 PM",
	"2006-01-02",
	"January 2, 2006",
}

// parseDateTime interprets a spoken-era timestamp in the business timezone.
// Values carrying an explicit offset keep it.
func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("handlers: empty date time")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("handlers: unrecognized date time %q", value)
}
