package resolver

import (
	"Mnemos/backend/go/internal/memory/entity"
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeLLM struct {
	response string
	err      error
	called   bool
}

func (f *fakeLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.called = true
	return f.response, f.err
}

func TestResolveEmptyCurrentIsIdentityOnNew(t *testing.T) {
	f := &fakeLLM{}
	r := NewLLMResolver(f)

	got, err := r.Resolve(context.Background(), entity.Location, nil, []string{"Lives in Boston"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Lives in Boston"}) {
		t.Errorf("Resolve() = %v, want new facts unchanged", got)
	}
	if f.called {
		t.Error("LLM was called for the trivial empty-current case")
	}
}

func TestResolveEmptyNewIsIdentityOnCurrent(t *testing.T) {
	f := &fakeLLM{}
	r := NewLLMResolver(f)

	got, err := r.Resolve(context.Background(), entity.Hobbies, []string{"Hiking"}, nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Hiking"}) {
		t.Errorf("Resolve() = %v, want current facts unchanged", got)
	}
	if f.called {
		t.Error("LLM was called for the trivial empty-new case")
	}
}

func TestResolveMergesThroughLLM(t *testing.T) {
	f := &fakeLLM{response: `["Lives in New York"]`}
	r := NewLLMResolver(f)

	got, err := r.Resolve(context.Background(), entity.Location, []string{"Lives in Boston"}, []string{"Lives in New York"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Lives in New York"}) {
		t.Errorf("Resolve() = %v, want [Lives in New York]", got)
	}
}

func TestResolveErrorsSurface(t *testing.T) {
	wantErr := errors.New("backend down")
	r := NewLLMResolver(&fakeLLM{err: wantErr})

	_, err := r.Resolve(context.Background(), entity.Location, []string{"Boston"}, []string{"New York"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Resolve() error = %v, want wrapped backend error", err)
	}
}

func TestResolveRejectsEmptyMerge(t *testing.T) {
	r := NewLLMResolver(&fakeLLM{response: `[]`})

	_, err := r.Resolve(context.Background(), entity.Location, []string{"Boston"}, []string{"New York"})
	if err == nil {
		t.Error("Resolve() accepted an empty merge of non-empty inputs")
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"plain array", `["a", "b"]`, []string{"a", "b"}, false},
		{"fenced array", "```json\n[\"a\"]\n```", []string{"a"}, false},
		{"duplicates dropped", `["a", "a", "b"]`, []string{"a", "b"}, false},
		{"non-strings dropped", `["a", 1, null, ""]`, []string{"a"}, false},
		{"object rejected", `{"a": 1}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResolution(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseResolution(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResolution(%q) unexpected error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseResolution(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
