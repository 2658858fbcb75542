package ignore

import "testing"

func TestMatcherDefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"generated/**",
		"!generated/keep.go",
		"*.tmp",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git/config", isDir: false, ignored: true},
		{path: ".mirra/records/a.go.md", isDir: false, ignored: true},
		{path: "node_modules/pkg/index.js", isDir: false, ignored: true},
		{path: "vendor/lib/a.go", isDir: false, ignored: true},
		{path: "generated/out.go", isDir: false, ignored: true},
		{path: "generated/keep.go", isDir: false, ignored: false},
		{path: "nested/cache.tmp", isDir: false, ignored: true},
		{path: "src/main.go", isDir: false, ignored: false},
		{path: ".env", isDir: false, ignored: true},
	}

	for _, tc := range cases {
		if got := m.ShouldIgnore(tc.path, tc.isDir); got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcherDirectoryRules(t *testing.T) {
	m := NewMatcher([]string{
		"docs/",
	})

	if !m.ShouldIgnore("docs", true) {
		t.Fatalf("expected docs directory to be ignored")
	}
	if !m.ShouldIgnore("docs/readme.md", false) {
		t.Fatalf("expected files under docs/ to be ignored")
	}
	if !m.ShouldIgnore("sub/docs/readme.md", false) {
		t.Fatalf("expected unanchored dir rule to match nested paths")
	}
	if !m.ShouldIgnore("sub/docs", true) {
		t.Fatalf("expected the nested docs directory itself to be ignored")
	}
	if m.ShouldIgnore("sub/docs.md", false) {
		t.Fatalf("dir rule must not match a file that merely shares the name")
	}
}

func TestMatcherAnchoredRule(t *testing.T) {
	m := NewMatcher([]string{
		"/Makefile",
	})

	if !m.ShouldIgnore("Makefile", false) {
		t.Fatalf("expected root Makefile to be ignored")
	}
	if m.ShouldIgnore("sub/Makefile", false) {
		t.Fatalf("anchored rule must not match nested paths")
	}
}

func TestMatcherCommentsAndBlanksSkipped(t *testing.T) {
	m := NewMatcher([]string{
		"# a comment",
		"",
		"real.txt",
	})

	if m.ShouldIgnore("# a comment", false) {
		t.Fatalf("comment lines must not become rules")
	}
	if !m.ShouldIgnore("real.txt", false) {
		t.Fatalf("expected real.txt to be ignored")
	}
}

func TestMatcherLastRuleWins(t *testing.T) {
	m := NewMatcher([]string{
		"*.log",
		"!important.log",
		"audit/*.log",
	})

	if m.ShouldIgnore("important.log", false) {
		t.Fatalf("negation must override the earlier rule")
	}
	if !m.ShouldIgnore("audit/run.log", false) {
		t.Fatalf("expected audit logs to be ignored")
	}
}
