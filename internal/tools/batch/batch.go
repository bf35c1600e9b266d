package batch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is the outcome of one id in a bulk operation.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates bulk results so partial failures stay visible.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseIDs accepts a tool argument that is either a single id string or an
// array of id strings, as MCP clients send both shapes.
func ParseIDs(param any, name string) ([]string, error) {
	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		return []string{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		ids := make([]string, 0, len(v))
		for i, item := range v {
			id, ok := item.(string)
			if !ok || id == "" {
				return nil, fmt.Errorf("%s[%d] must be a non-empty string", name, i)
			}
			ids = append(ids, id)
		}
		return ids, nil
	case nil:
		return nil, fmt.Errorf("%s is required", name)
	default:
		return nil, fmt.Errorf("%s must be a string or an array of strings", name)
	}
}

// Run applies fn to every id in order and records each outcome. It stops
// early only when the context is cancelled; one failing id never blocks the
// rest.
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Status: "error", Error: err.Error()})
			continue
		}
		detail, err := fn(ctx, id)
		if err != nil {
			results = append(results, Result{ID: id, Status: "error", Error: err.Error()})
			continue
		}
		results = append(results, Result{ID: id, Status: "success", Detail: detail})
	}
	return results
}

// Summarize renders results as an indented JSON summary for tool output.
func Summarize(results []Result) string {
	s := Summary{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == "success" {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	out, _ := json.MarshalIndent(s, "", "  ")
	return string(out)
}

// AllFailed reports whether not a single id succeeded, which turns the whole
// tool call into an error result.
func AllFailed(results []Result) bool {
	for _, r := range results {
		if r.Status == "success" {
			return false
		}
	}
	return len(results) > 0
}
