package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"testing"

	"github.com/mcpkit/mcp-core-go/mcp"
	"github.com/mcpkit/mcp-core-go/schema"
)

func registerCalculator(t *testing.T, r *ToolRegistry) *int {
	t.Helper()
	calls := new(int)
	tool := mcp.Tool{
		Name:        "calculator",
		Description: "Performs basic arithmetic.",
		InputSchema: mcp.NewInputSchema().
			Add("operation", mcp.Property{Type: mcp.TypeString, Enum: []any{"add", "subtract"}}).
			Add("a", mcp.Property{Type: mcp.TypeNumber}).
			Add("b", mcp.Property{Type: mcp.TypeNumber}).
			Require("operation", "a", "b"),
	}
	err := r.Register(tool, func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		*calls++
		a := args["a"].(float64)
		b := args["b"].(float64)
		var v float64
		switch args["operation"].(string) {
		case "add":
			v = a + b
		case "subtract":
			v = a - b
		}
		return TextResult(strconv.FormatFloat(v, 'f', -1, 64)), nil
	})
	if err != nil {
		t.Fatalf("register calculator: %v", err)
	}
	return calls
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("result = %+v, want one content block", res)
	}
	if res.Content[0].Type != mcp.ContentTypeText {
		t.Fatalf("content type = %s", res.Content[0].Type)
	}
	return res.Content[0].Text
}

func TestToolExecute(t *testing.T) {
	r := NewToolRegistry()
	registerCalculator(t, r)

	res, err := r.Execute(context.Background(), "calculator", map[string]any{
		"operation": "add", "a": 5.0, "b": 3.0,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := textOf(t, res); got != "8" {
		t.Fatalf("calculator add 5 3 = %q, want 8", got)
	}
	if res.IsError {
		t.Fatal("successful call flagged IsError")
	}
}

func TestToolExecuteUnknownName(t *testing.T) {
	r := NewToolRegistry()
	_, err := r.Execute(context.Background(), "missing", nil)

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %T (%v), want *NotFoundError", err, err)
	}
	if nf.Kind != "tool" || nf.Name != "missing" {
		t.Fatalf("NotFoundError = %+v", nf)
	}
}

func TestToolExecuteValidationGatesHandler(t *testing.T) {
	r := NewToolRegistry()
	calls := registerCalculator(t, r)

	_, err := r.Execute(context.Background(), "calculator", map[string]any{
		"operation": "add", "a": "5", "b": 3.0,
	})
	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %T (%v), want *schema.ValidationError", err, err)
	}
	if *calls != 0 {
		t.Fatalf("handler ran %d times for invalid arguments", *calls)
	}
}

func TestToolExecuteWrapsHandlerError(t *testing.T) {
	r := NewToolRegistry()
	boom := fmt.Errorf("backend unavailable")
	r.Register(mcp.Tool{Name: "flaky"}, func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
		return nil, boom
	})

	_, err := r.Execute(context.Background(), "flaky", nil)
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %T (%v), want *InternalError", err, err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("InternalError should wrap the handler error")
	}
}

func TestToolExecuteRecoversPanic(t *testing.T) {
	r := NewToolRegistry()
	r.Register(mcp.Tool{Name: "panicky"}, func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
		panic("kaboom")
	})

	_, err := r.Execute(context.Background(), "panicky", nil)
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %T (%v), want *InternalError", err, err)
	}
}

func TestToolReplacementKeepsPositionAndSwapsHandler(t *testing.T) {
	r := NewToolRegistry()
	mk := func(name, reply string) error {
		return r.Register(mcp.Tool{Name: name}, func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
			return TextResult(reply), nil
		})
	}
	mk("first", "1")
	mk("second", "2")
	mk("first", "updated")

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	if !reflect.DeepEqual(names, []string{"first", "second"}) {
		t.Fatalf("listing order = %v", names)
	}

	res, err := r.Execute(context.Background(), "first", nil)
	if err != nil {
		t.Fatalf("execute replaced tool: %v", err)
	}
	if got := textOf(t, res); got != "updated" {
		t.Fatalf("replaced handler reply = %q", got)
	}
}

func TestRegisterMap(t *testing.T) {
	r := NewToolRegistry()
	err := r.RegisterMap("echo", "Echoes input.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
		"required": []any{"message"},
	}, func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		return TextResult(args["message"].(string)), nil
	})
	if err != nil {
		t.Fatalf("RegisterMap: %v", err)
	}

	if _, err := r.Execute(context.Background(), "echo", map[string]any{}); err == nil {
		t.Fatal("missing required argument should fail validation")
	}
	res, err := r.Execute(context.Background(), "echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := textOf(t, res); got != "hi" {
		t.Fatalf("echo = %q", got)
	}
}

func TestRegisterTyped(t *testing.T) {
	type greetArgs struct {
		Name   string `json:"name"`
		Formal bool   `json:"formal,omitempty"`
	}

	r := NewToolRegistry()
	err := RegisterTyped(r, "greet", "Greets someone.", func(ctx context.Context, args greetArgs) (*mcp.CallToolResult, error) {
		if args.Formal {
			return TextResult("Good day, " + args.Name), nil
		}
		return TextResult("Hi " + args.Name), nil
	})
	if err != nil {
		t.Fatalf("RegisterTyped: %v", err)
	}

	tool, ok := r.Get("greet")
	if !ok || tool.InputSchema == nil {
		t.Fatalf("reflected tool = %+v", tool)
	}
	if _, ok := tool.InputSchema.Properties.Get("name"); !ok {
		t.Fatalf("reflected schema missing name: %v", tool.InputSchema.PropertyNames())
	}

	res, err := r.Execute(context.Background(), "greet", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := textOf(t, res); got != "Hi Ada" {
		t.Fatalf("greet = %q", got)
	}

	// Unknown fields surface as a tool-level error result, not a protocol
	// error.
	res, err = r.Execute(context.Background(), "greet", map[string]any{"name": "Ada", "extra": 1})
	if err != nil {
		t.Fatalf("unknown field should not be a protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("unknown field result = %+v, want IsError", res)
	}
}

func TestToolRegisterRejectsBadInput(t *testing.T) {
	r := NewToolRegistry()
	if err := r.Register(mcp.Tool{}, func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
		return nil, nil
	}); err == nil {
		t.Fatal("empty name should be rejected")
	}
	if err := r.Register(mcp.Tool{Name: "x"}, nil); err == nil {
		t.Fatal("nil handler should be rejected")
	}
}
