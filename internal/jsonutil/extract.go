// Package jsonutil extracts JSON payloads embedded in reasoning-service replies.
//
// The reasoning service is instructed to answer with a single JSON object, but
// real replies often wrap it in markdown fences or surround it with prose.
// This package digs the object out of that envelope before decoding.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractObject finds and returns the JSON object portion of a reply string.
// It handles the common reply shapes:
// 1. Pure JSON reply - returns the full reply
// 2. JSON wrapped in markdown code fences (```json ... ```)
// 3. JSON object embedded in prose - first '{' to last '}'
//
// Limitations:
// - Only handles JSON objects, not arrays
// - Uses simple brace matching, not full JSON parsing
// - May fail if braces appear in strings or are unbalanced
func extractObject(reply string) (string, error) {
	reply = stripCodeFences(reply)

	// Try the full reply first
	var test interface{}
	if err := json.Unmarshal([]byte(reply), &test); err == nil {
		return reply, nil
	}

	// Fall back to the outermost brace span
	start := strings.Index(reply, "{")
	if start != -1 {
		end := strings.LastIndex(reply, "}")
		if end != -1 && end > start {
			jsonStr := reply[start : end+1]
			var test interface{}
			if err := json.Unmarshal([]byte(jsonStr), &test); err == nil {
				return jsonStr, nil
			}
		}
	}

	preview := reply
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("no valid JSON object in reply: %q", preview)
}

// stripCodeFences removes markdown code fence markers from a reply.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripCodeFences(reply string) string {
	trimmed := strings.TrimSpace(reply)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}

// Decode extracts the JSON object from a reply and unmarshals it into T.
//
// A failure at either layer (no object found, or the object does not
// unmarshal) is returned as an error; callers decide how to degrade.
func Decode[T any](reply string) (T, error) {
	var result T
	jsonStr, err := extractObject(reply)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// DecodeInto extracts the JSON object from a reply into a provided pointer.
// Non-generic version for cases where generics aren't suitable.
func DecodeInto(reply string, result interface{}) error {
	jsonStr, err := extractObject(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// ExtractObject returns the raw JSON object portion of a reply string,
// suitable for further processing.
func ExtractObject(reply string) (string, error) {
	return extractObject(reply)
}
