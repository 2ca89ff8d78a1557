package wweb

import (
	"encoding/json"
	"fmt"
)

// Positional argument coercion for dispatched operations. The dispatcher
// passes JSON-decoded values through untouched; each invocable interprets
// its own positions and a mismatch surfaces as the operation's error.

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("argument %d is required", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d: expected string, got %T", i, args[i])
	}
	return s, nil
}

func optionalInt(args []any, i int, def int) int {
	if i >= len(args) || args[i] == nil {
		return def
	}
	switch v := args[i].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// optionsArg decodes a JSON object argument into SendOptions.
func optionsArg(args []any, i int) (*SendOptions, error) {
	if i >= len(args) || args[i] == nil {
		return nil, nil
	}
	return decodeOptions(args[i])
}

func decodeOptions(v any) (*SendOptions, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	var opts SendOptions
	if err := json.Unmarshal(b, &opts); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	return &opts, nil
}

// contentArg interprets the message-content position: a plain string body,
// a *Media, or a JSON object with a mimetype (media sent as an object, the
// way send-media builds its dispatch request).
func contentArg(args []any, i int) (string, *Media, error) {
	if i >= len(args) || args[i] == nil {
		return "", nil, nil
	}
	switch v := args[i].(type) {
	case string:
		return v, nil, nil
	case *Media:
		return "", v, nil
	case map[string]any:
		if _, ok := v["mimetype"]; !ok {
			return "", nil, fmt.Errorf("argument %d: object content must be media with a mimetype", i)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("argument %d: %w", i, err)
		}
		var m Media
		if err := json.Unmarshal(b, &m); err != nil {
			return "", nil, fmt.Errorf("argument %d: %w", i, err)
		}
		return "", &m, nil
	}
	return "", nil, fmt.Errorf("argument %d: unsupported content type %T", i, args[i])
}
