package executor

import (
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/jmylchreest/parsegen/pkg/pdfdoc"
	"github.com/jmylchreest/parsegen/pkg/table"
)

// Import paths of the host packages candidates may use.
const (
	TableImport  = "github.com/jmylchreest/parsegen/pkg/table"
	PDFDocImport = "github.com/jmylchreest/parsegen/pkg/pdfdoc"
)

// AllowedStdlib is the standard library subset visible to candidates. No
// package here can write files, spawn processes or open sockets.
var AllowedStdlib = []string{
	"bytes",
	"errors",
	"fmt",
	"math",
	"path",
	"path/filepath",
	"regexp",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode",
	"unicode/utf8",
}

// hostSymbols is written in the layout yaegi's extract tool produces.
var hostSymbols = interp.Exports{
	TableImport + "/table": {
		"Table":     reflect.ValueOf((*table.Table)(nil)),
		"Shape":     reflect.ValueOf((*table.Shape)(nil)),
		"New":       reflect.ValueOf(table.New),
		"Normalize": reflect.ValueOf(table.Normalize),
		"IsMissing": reflect.ValueOf(table.IsMissing),
	},
	PDFDocImport + "/pdfdoc": {
		"Document":     reflect.ValueOf((*pdfdoc.Document)(nil)),
		"Open":         reflect.ValueOf(pdfdoc.Open),
		"ExtractRows":  reflect.ValueOf(pdfdoc.ExtractRows),
		"ExtractLines": reflect.ValueOf(pdfdoc.ExtractLines),
	},
}

// exportKey converts an import path into yaegi's "path/name" symbol key.
func exportKey(importPath string) string {
	return importPath + "/" + importPath[strings.LastIndex(importPath, "/")+1:]
}

// Symbols returns the allowlisted stdlib symbols plus the host packages.
func Symbols() interp.Exports {
	out := make(interp.Exports, len(AllowedStdlib)+len(hostSymbols))
	for _, p := range AllowedStdlib {
		if syms, ok := stdlib.Symbols[exportKey(p)]; ok {
			out[exportKey(p)] = syms
		}
	}
	for k, v := range hostSymbols {
		out[k] = v
	}
	return out
}

// AllowedImports lists every import path a candidate may use, sorted.
func AllowedImports() []string {
	paths := append([]string{TableImport, PDFDocImport}, AllowedStdlib...)
	sort.Strings(paths)
	return paths
}

func importAllowed(path string) bool {
	if path == TableImport || path == PDFDocImport {
		return true
	}
	for _, p := range AllowedStdlib {
		if p == path {
			return true
		}
	}
	return false
}
