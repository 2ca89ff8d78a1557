package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func testDispatcher(chats map[string]MethodSet) *Dispatcher {
	d := New()
	d.Register(KindClient, func(_ context.Context, _ string) (MethodSet, error) {
		return MethodSet{
			"echo": func(_ context.Context, args []any) (any, error) {
				return args, nil
			},
		}, nil
	})
	d.Register(KindChat, func(_ context.Context, id string) (MethodSet, error) {
		ms, ok := chats[id]
		if !ok {
			return nil, fmt.Errorf("chat %s does not exist", id)
		}
		return ms, nil
	})
	return d
}

func TestCall_InvalidType(t *testing.T) {
	d := testDispatcher(nil)
	_, err := d.Call(context.Background(), Request{Type: "group", Method: "x"})
	var bad *InvalidTargetType
	if !errors.As(err, &bad) {
		t.Fatalf("err = %v, want InvalidTargetType", err)
	}
	if bad.Type != "group" {
		t.Fatalf("type = %q", bad.Type)
	}
}

func TestCall_TargetNotFound(t *testing.T) {
	d := testDispatcher(map[string]MethodSet{})
	_, err := d.Call(context.Background(), Request{Type: "chat", ID: "X@c.us", Method: "archive"})
	var nf *TargetNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want TargetNotFound", err)
	}
	if nf.Kind != KindChat || nf.ID != "X@c.us" {
		t.Fatalf("err = %+v", nf)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCall_MethodNotFound(t *testing.T) {
	d := testDispatcher(map[string]MethodSet{"c1": {}})
	_, err := d.Call(context.Background(), Request{Type: "chat", ID: "c1", Method: "explode"})
	var mnf *MethodNotFound
	if !errors.As(err, &mnf) {
		t.Fatalf("err = %v, want MethodNotFound", err)
	}
	// The error must name both the method and the target kind.
	if !strings.Contains(err.Error(), "explode") || !strings.Contains(err.Error(), "chat") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCall_ArgsPassedPositionally(t *testing.T) {
	d := testDispatcher(nil)
	out, err := d.Call(context.Background(), Request{
		Type: "client", Method: "echo", Args: []any{"a", 2.0, true},
	})
	if err != nil {
		t.Fatal(err)
	}
	args := out.([]any)
	if len(args) != 3 || args[0] != "a" || args[1] != 2.0 || args[2] != true {
		t.Fatalf("args = %v", args)
	}
}

func TestCall_OperationErrorPassesThrough(t *testing.T) {
	boom := errors.New("Evaluation failed: reading add")
	d := New()
	d.Register(KindClient, func(_ context.Context, _ string) (MethodSet, error) {
		return MethodSet{
			"sendMessage": func(_ context.Context, _ []any) (any, error) {
				return nil, boom
			},
		}, nil
	})
	_, err := d.Call(context.Background(), Request{Type: "client", Method: "sendMessage"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want underlying error verbatim", err)
	}
}
