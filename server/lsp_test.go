package server

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"simple word", "b.buf", protocol.Position{Line: 0, Character: 5}, "buf"},
		{"at start", "pus", protocol.Position{Line: 0, Character: 3}, "pus"},
		{"empty line", "", protocol.Position{Line: 0, Character: 0}, ""},
		{"multi line", "first\nsecond\nb.ra", protocol.Position{Line: 2, Character: 4}, "ra"},
		{"cursor at beginning", "hello", protocol.Position{Line: 0, Character: 0}, ""},
		{"line beyond document", "single line", protocol.Position{Line: 5, Character: 0}, ""},
		{"column beyond line", "b.get", protocol.Position{Line: 0, Character: 50}, "get"},
		{"after paren", "b.set(s, b.ad", protocol.Position{Line: 0, Character: 13}, "ad"},
	}
	for _, tt := range tests {
		if got := extractPrefix(tt.text, tt.pos); got != tt.want {
			t.Errorf("%s: extractPrefix = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"middle", "b.screen(s)", protocol.Position{Line: 0, Character: 4}, "screen"},
		{"end", "b.pop", protocol.Position{Line: 0, Character: 5}, "pop"},
		{"start", "copy(a)", protocol.Position{Line: 0, Character: 0}, "copy"},
		{"on punctuation", "a + b", protocol.Position{Line: 0, Character: 2}, ""},
		{"second line", "x\nb.random(4)", protocol.Position{Line: 1, Character: 3}, "random"},
	}
	for _, tt := range tests {
		if got := extractWord(tt.text, tt.pos); got != tt.want {
			t.Errorf("%s: extractWord = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Completion and hover
// ---------------------------------------------------------------------------

func TestComplete(t *testing.T) {
	items := complete("p")
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.Label
	}
	if strings.Join(labels, ",") != "pop,push" {
		t.Errorf("complete(p) = %v, want [pop push]", labels)
	}

	items = complete("SCR")
	if len(items) != 1 || items[0].Label != "screen" {
		t.Fatalf("complete(SCR) = %v, want [screen]", items)
	}
	if items[0].Detail == nil || *items[0].Detail != "screen(buf)" {
		t.Errorf("screen detail = %v", items[0].Detail)
	}
	if items[0].Kind == nil || *items[0].Kind != protocol.CompletionItemKindFunction {
		t.Error("builtins should complete as functions")
	}

	if items := complete("zzz"); len(items) != 0 {
		t.Errorf("complete(zzz) = %v, want none", items)
	}
}

func TestHover(t *testing.T) {
	h := hover("pop")
	if h == nil {
		t.Fatal("hover(pop) = nil")
	}
	content := h.Contents.(protocol.MarkupContent)
	if content.Kind != protocol.MarkupKindMarkdown {
		t.Errorf("hover kind = %q, want markdown", content.Kind)
	}
	for _, want := range []string{"**pop(buf)**", "removes and returns", "buffer not found", "underflow"} {
		if !strings.Contains(content.Value, want) {
			t.Errorf("hover(pop) missing %q:\n%s", want, content.Value)
		}
	}

	h = hover("add")
	if strings.Contains(h.Contents.(protocol.MarkupContent).Value, "Fails with") {
		t.Error("add never fails and should list no failures")
	}

	if hover("jump") != nil {
		t.Error("hover(jump) should be nil")
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

type fakeLspCompiler struct{ err error }

func (c fakeLspCompiler) Compile(ctx context.Context, source string) (string, error) {
	return "", c.err
}

func TestDiagnose(t *testing.T) {
	s := NewLSP(nil)
	if msg := s.diagnose("file:///a.js", document{text: "(function (b) { return {}; })"}); msg != "" {
		t.Errorf("valid factory diagnostic = %q, want none", msg)
	}
	if msg := s.diagnose("file:///a.txt", document{languageID: "javascript", text: "(function ("}); !strings.Contains(msg, "syntax error") {
		t.Errorf("broken factory diagnostic = %q, want syntax error", msg)
	}
	if msg := s.diagnose("file:///prog.sg", document{text: "anything"}); msg != "" {
		t.Errorf("source without compiler diagnostic = %q, want none", msg)
	}

	s = NewLSP(fakeLspCompiler{err: errors.New("compile error: line 3")})
	if msg := s.diagnose("file:///prog.sg", document{text: "bad"}); msg != "compile error: line 3" {
		t.Errorf("source diagnostic = %q", msg)
	}
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	s := NewLSP(nil)
	notified := 0
	ctx := &glsp.Context{Notify: func(method string, params any) { notified++ }}

	res, err := s.initialize(ctx, &protocol.InitializeParams{})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	result, ok := res.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("initialize returned %T", res)
	}
	if result.ServerInfo == nil || result.ServerInfo.Name != lspName {
		t.Errorf("server info = %+v, want name %q", result.ServerInfo, lspName)
	}
	if result.Capabilities.HoverProvider != true {
		t.Errorf("hover provider = %v, want true", result.Capabilities.HoverProvider)
	}
	if result.Capabilities.CompletionProvider == nil {
		t.Error("completion provider not advertised")
	}
	if notified != 0 {
		t.Errorf("initialize sent %d notifications before the client was ready", notified)
	}
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	s := NewLSP(nil)
	published := make(chan protocol.PublishDiagnosticsParams, 1)
	ctx := &glsp.Context{Notify: func(method string, params any) {
		if method == protocol.ServerTextDocumentPublishDiagnostics {
			published <- params.(protocol.PublishDiagnosticsParams)
		}
	}}

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///p.js", LanguageID: "javascript", Text: "(function ("},
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-published:
		if len(p.Diagnostics) != 1 {
			t.Errorf("diagnostics = %v, want one", p.Diagnostics)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no diagnostics published")
	}

}

func TestCompletionUsesOpenDocument(t *testing.T) {
	s := NewLSP(nil)
	ctx := &glsp.Context{Notify: func(method string, params any) {}}
	s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///p.js", Text: "b.pu"},
	})

	result, err := s.textDocumentCompletion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///p.js"},
			Position:     protocol.Position{Line: 0, Character: 4},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	items, ok := result.([]protocol.CompletionItem)
	if !ok || len(items) != 1 || items[0].Label != "push" {
		t.Errorf("completion = %v, want [push]", result)
	}

	result, _ = s.textDocumentCompletion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///closed.js"},
		},
	})
	if result != nil {
		t.Errorf("completion in unknown document = %v, want nil", result)
	}
}
