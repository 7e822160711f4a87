package oracle

import (
	"fmt"
	"go/parser"
	"go/token"
	"strings"

	"github.com/jmylchreest/parsegen/internal/executor"
)

// SystemPrompt frames every generation request.
const SystemPrompt = `You write small Go parsers that turn bank statement PDFs into tables.

Respond with Go source code only. No markdown, no explanations.`

// PromptInput is everything the user prompt is built from.
type PromptInput struct {
	Target     string
	Columns    []string
	Sample     string // CSV text of the first reference rows
	Attempt    int
	PriorError string
}

// BuildPrompt creates the generation prompt.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("Generate Go code only (no markdown, no text).\n")
	b.WriteString("Requirements:\n")
	b.WriteString("- Must be `package main`\n")
	fmt.Fprintf(&b, "- Must define exactly: func %s(path string) (table.Table, error)\n", executor.EntryPoint)
	fmt.Fprintf(&b, "- Import only these packages: %s\n", strings.Join(executor.AllowedImports(), ", "))
	fmt.Fprintf(&b, "- Read the PDF with %s: pdfdoc.ExtractRows(path) returns [][]string (text fragments per visual row, all pages, top to bottom); pdfdoc.ExtractLines(path) returns each row joined by spaces\n", executor.PDFDocImport)
	fmt.Fprintf(&b, "- Build the result with %s: table.New(columns...) then t.Append(cells...)\n", executor.TableImport)
	fmt.Fprintf(&b, "- Output table with columns: %s\n", formatColumns(in.Columns))
	b.WriteString("- Extract all rows from all PDF pages\n")
	if len(in.Columns) > 0 {
		fmt.Fprintf(&b, "- Remove duplicate header rows (rows where first cell is '%s')\n", in.Columns[0])
	}
	b.WriteString("- Replace missing values with \"\"\n")
	b.WriteString("Target CSV sample:\n")
	b.WriteString(in.Sample)
	if !strings.HasSuffix(in.Sample, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Attempt: %d\n", in.Attempt)
	if in.PriorError != "" {
		b.WriteString("\nPrevious error:\n")
		b.WriteString(in.PriorError)
		b.WriteString("\n")
	}

	return b.String()
}

func formatColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// StripCodeFence removes markdown fences the model may wrap code in.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```golang", "```go", "```"} {
		s = strings.ReplaceAll(s, fence, "")
	}
	return strings.TrimSpace(s)
}

// CheckSyntax reports whether src parses as a Go source file.
func CheckSyntax(src string) error {
	_, err := parser.ParseFile(token.NewFileSet(), "candidate.go", src, parser.AllErrors)
	return err
}
