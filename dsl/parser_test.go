package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/justify/dsl"
)

const sampleDSL = `
doc Essay v1 {
  meta {
    title: "On Spacing"
    keywords: [
      "typography"
      "layout"
    ]
  }

  resources {
    font Body {
      src: "builtin:goregular"
    }

    color Ink = #0F62FE
    style Para { font: Body size: 11pt line-height: 1.3x color: Ink }
  }

  page A4 landscape margin 18mm {
    text Para width 80% { "Hello, ${user.name}!" }

    flow indent 10mm {
      text Para height 30mm {
        "first part "
        "second part"
      }
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Essay" || doc.Version != "v1" {
		t.Fatalf("unexpected header %s %s", doc.Name, doc.Version)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	kinds := []string{"meta", "resources", "page"}
	for i, want := range kinds {
		if got := doc.Sections[i].Kind(); got != want {
			t.Fatalf("section %d: expected %s, got %s", i, want, got)
		}
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" || title.Value.Text() != "On Spacing" {
		t.Fatalf("unexpected title assignment: %+v", meta.Block.Statements[0])
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil {
		t.Fatalf("expected keywords array assignment")
	}
	if got := strings.Join(keywords.Value.Strings(), ","); got != "typography,layout" {
		t.Fatalf("unexpected keywords %q", got)
	}

	pages := doc.Pages()
	if len(pages) != 1 {
		t.Fatalf("expected 1 page section, got %d", len(pages))
	}
	page := pages[0]
	if page.Spec.Size != "A4" {
		t.Fatalf("expected page size A4, got %s", page.Spec.Size)
	}
	if len(page.Spec.Params) != 3 || page.Spec.Params[0].Value != "landscape" || page.Spec.Params[2].Value != "18mm" {
		t.Fatalf("unexpected page params: %+v", page.Spec.Params)
	}

	textCmd := page.Block.Statements[0].Command
	if textCmd == nil || textCmd.Name != "text" {
		t.Fatalf("expected text command, got %+v", page.Block.Statements[0])
	}
	if len(textCmd.Args) != 3 || textCmd.Args[0].Value != "Para" || textCmd.Args[2].Value != "80%" {
		t.Fatalf("unexpected text args: %+v", textCmd.Args)
	}
	if textCmd.Args[0].Type != "Ident" || textCmd.Args[2].Type != "Number" {
		t.Fatalf("unexpected arg token types: %s %s", textCmd.Args[0].Type, textCmd.Args[2].Type)
	}
	lit := textCmd.Block.Statements[0].Text
	if lit == nil || !strings.Contains(string(lit.Value), "${user.name}") {
		t.Fatalf("expected interpolation in text literal, got %+v", lit)
	}

	flow := page.Block.Statements[1].Command
	if flow == nil || flow.Name != "flow" || flow.Block == nil {
		t.Fatalf("expected flow command, got %+v", page.Block.Statements[1])
	}
	inner := flow.Block.Statements[0].Command
	if inner == nil || len(inner.Block.Statements) != 2 {
		t.Fatalf("expected two string statements in nested text, got %+v", inner)
	}
}

func TestParseStyleAssignments(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res := doc.Sections[1].Resources
	var style *dsl.Command
	for _, st := range res.Block.Statements {
		if st.Command != nil && st.Command.Name == "style" {
			style = st.Command
		}
	}
	if style == nil || style.Block == nil {
		t.Fatalf("style declaration missing")
	}
	got := map[string]string{}
	for _, st := range style.Block.Statements {
		if st.Assignment != nil {
			got[st.Assignment.Key] = st.Assignment.Value.Text()
		}
	}
	want := map[string]string{"font": "Body", "size": "11pt", "line-height": "1.3x", "color": "Ink"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("style %s: expected %q, got %q", k, v, got[k])
		}
	}
}

func TestParseColorLiteral(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for _, st := range doc.Sections[1].Resources.Block.Statements {
		if st.Command == nil || st.Command.Name != "color" {
			continue
		}
		last := st.Command.Args[len(st.Command.Args)-1]
		if last.Type != "Color" || last.Value != "#0F62FE" {
			t.Fatalf("expected full color token, got %+v", last)
		}
		return
	}
	t.Fatalf("color declaration missing")
}

func TestParseRejectsMissingHeader(t *testing.T) {
	if _, err := dsl.ParseString(`page A4 { }`); err == nil {
		t.Fatalf("expected error for document without doc header")
	}
}
