package queries

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/gnana997/classwrap/pkg/parser"
)

var (
	testLogger        *slog.Logger
	testParserManager *parser.ParserManager
	testQueryManager  *QueryManager
)

func setupTest(t *testing.T) {
	t.Helper()

	testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	testParserManager = parser.NewParserManager(testLogger)
	testQueryManager = NewQueryManager(testParserManager, testLogger)
}

func teardownTest(t *testing.T) {
	t.Helper()

	if testQueryManager != nil {
		testQueryManager.Close()
	}
	if testParserManager != nil {
		testParserManager.Close()
	}
}

// ===========================================================================
// QUERY COMPILATION TESTS
// ===========================================================================

func TestQueryCompilation(t *testing.T) {
	setupTest(t)
	defer teardownTest(t)

	for _, dialect := range parser.SupportedDialects() {
		for _, qtype := range []QueryType{QueryTypeBindings, QueryTypeImports} {
			query, err := testQueryManager.GetQuery(dialect, qtype)
			if err != nil {
				t.Fatalf("failed to compile %s query for %s: %v", qtype, dialect, err)
			}
			if query == nil {
				t.Fatalf("compiled %s query for %s is nil", qtype, dialect)
			}
		}
	}
}

func TestQueryCompilation_UnknownDialect(t *testing.T) {
	setupTest(t)
	defer teardownTest(t)

	if _, err := testQueryManager.GetQuery(parser.DialectUnknown, QueryTypeBindings); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestQueryCaching(t *testing.T) {
	setupTest(t)
	defer teardownTest(t)

	first, err := testQueryManager.GetQuery(parser.DialectJSX, QueryTypeImports)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := testQueryManager.GetQuery(parser.DialectJSX, QueryTypeImports)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Error("expected the cached query to be returned")
	}
}

func TestQueryCaching_Concurrent(t *testing.T) {
	setupTest(t)
	defer teardownTest(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := testQueryManager.GetQuery(parser.DialectTSX, QueryTypeBindings); err != nil {
				t.Errorf("compile: %v", err)
			}
		}()
	}
	wg.Wait()
}

// ===========================================================================
// QUERY EXECUTION TESTS
// ===========================================================================

func runQuery(t *testing.T, dialect parser.Dialect, qtype QueryType, code string) []QueryMatch {
	t.Helper()

	source := []byte(code)
	tree, err := testParserManager.Parse(source, dialect)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer tree.Close()

	matches, err := testQueryManager.Run(tree, dialect, qtype, source)
	if err != nil {
		t.Fatalf("run %s query: %v", qtype, err)
	}
	return matches
}

func TestImportsQuery(t *testing.T) {
	setupTest(t)
	defer teardownTest(t)

	code := `import React from "react";
import cx, { bind } from 'classnames';
import * as styles from "./app.module.css";
const x = <div className={cx([])} />;
`
	matches := runQuery(t, parser.DialectJSX, QueryTypeImports, code)
	if len(matches) != 3 {
		t.Fatalf("expected 3 import matches, got %d", len(matches))
	}

	wantSources := []string{`"react"`, `'classnames'`, `"./app.module.css"`}
	for i, m := range matches {
		src, ok := m.Capture("import.source")
		if !ok {
			t.Fatalf("match %d has no import.source capture", i)
		}
		if src.Text != wantSources[i] {
			t.Errorf("match %d: source = %s, want %s", i, src.Text, wantSources[i])
		}
		if src.Category != "import" || src.Field != "source" {
			t.Errorf("match %d: bad capture split %q/%q", i, src.Category, src.Field)
		}
		if _, ok := m.Capture("import.statement"); !ok {
			t.Errorf("match %d has no import.statement capture", i)
		}
	}

	if matches[1].Captures[0].Location.StartLine != 2 {
		t.Errorf("second import should start on line 2")
	}
}

func TestBindingsQuery(t *testing.T) {
	setupTest(t)
	defer teardownTest(t)

	code := `import _cx from "classnames";
function App({ active }) {
  const styles = { wrap: "w" };
  return <Panel className={_cx(styles.wrap, { active })} />;
}
`
	matches := runQuery(t, parser.DialectJSX, QueryTypeBindings, code)

	names := map[string]bool{}
	for _, m := range matches {
		for _, c := range m.Captures {
			names[c.Text] = true
		}
	}

	for _, want := range []string{"_cx", "App", "active", "styles", "Panel"} {
		if !names[want] {
			t.Errorf("expected binding %q to be captured", want)
		}
	}
	if names["wrap"] {
		t.Error("property names are not bindings")
	}
}

func TestBindingsQuery_TSXTypes(t *testing.T) {
	setupTest(t)
	defer teardownTest(t)

	code := `type _cx = string;
const App = (p: Props) => <div className={p.cls} />;
`
	matches := runQuery(t, parser.DialectTSX, QueryTypeBindings, code)

	types := map[string]bool{}
	for _, m := range matches {
		for _, c := range m.Captures {
			if c.Field == "type" {
				types[c.Text] = true
			}
		}
	}
	if !types["_cx"] || !types["Props"] {
		t.Errorf("expected type names to be captured, got %v", types)
	}
}

func TestQueryTypeString(t *testing.T) {
	if QueryTypeBindings.String() != "bindings" || QueryTypeImports.String() != "imports" {
		t.Error("unexpected QueryType names")
	}
	if QueryType(99).String() != "unknown" {
		t.Error("expected unknown")
	}
}
