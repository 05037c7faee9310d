package lpe

import "testing"

func mustCompile(t *testing.T, expr string) *Matcher {
	t.Helper()
	m, err := Compile(expr)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", expr, err)
	}
	return m
}

func TestLeadingTerminalAnchor(t *testing.T) {
	m := mustCompile(t, "C.*")
	if !m.Match(Path{Camera, Diffuse, Reflect, Emission}) {
		t.Errorf("expected C.* to accept a path starting with C")
	}
	if m.Match(Path{Emission, Diffuse, Reflect, Camera}) {
		t.Errorf("expected C.* to reject a path not starting with C")
	}
}

func TestScatterClassPlusBeforeEmission(t *testing.T) {
	m := mustCompile(t, "C[DS]+E")
	if !m.Match(Path{Camera, Diffuse, Specular, Diffuse, Emission}) {
		t.Errorf("expected C[DS]+E to accept C D S D E")
	}
	if m.Match(Path{Camera, Emission}) {
		t.Errorf("expected C[DS]+E to reject C E (no scatter vertex)")
	}
	if m.Match(Path{Camera, Volume, Emission}) {
		t.Errorf("expected C[DS]+E to reject a volume-only scatter")
	}
}

// TestPathTokenSequenceScenario exercises the exact scenario from spec.md
// §8: the path token sequence C D R E is accepted by "CD.*E" and
// rejected by "CS.*E".
func TestPathTokenSequenceScenario(t *testing.T) {
	path := Path{Camera, Diffuse, Reflect, Emission}

	accept := mustCompile(t, "CD.*E")
	if !accept.Match(path) {
		t.Errorf("expected CD.*E to accept C D R E")
	}

	reject := mustCompile(t, "CS.*E")
	if reject.Match(path) {
		t.Errorf("expected CS.*E to reject C D R E")
	}
}

func TestAlternationAndGrouping(t *testing.T) {
	m := mustCompile(t, "C(D|S)*(R|T)E")
	if !m.Match(Path{Camera, Diffuse, Specular, Reflect, Emission}) {
		t.Errorf("expected group+alternation expression to accept C D S R E")
	}
	if !m.Match(Path{Camera, Reflect, Emission}) {
		t.Errorf("expected zero scatter vertices to be accepted via the * quantifier")
	}
	if m.Match(Path{Camera, Volume, Reflect, Emission}) {
		t.Errorf("expected a Volume token to fall outside (D|S)*")
	}
}

func TestNegatedClass(t *testing.T) {
	m := mustCompile(t, "C[^V]+E")
	if !m.Match(Path{Camera, Diffuse, Reflect, Emission}) {
		t.Errorf("expected non-volume scatter path to be accepted")
	}
	if m.Match(Path{Camera, Volume, Emission}) {
		t.Errorf("expected a Volume token to be rejected by [^V]")
	}
}

func TestOptionalToken(t *testing.T) {
	m := mustCompile(t, "CR?E")
	if !m.Match(Path{Camera, Emission}) {
		t.Errorf("expected CR?E to accept C E")
	}
	if !m.Match(Path{Camera, Reflect, Emission}) {
		t.Errorf("expected CR?E to accept C R E")
	}
	if m.Match(Path{Camera, Reflect, Reflect, Emission}) {
		t.Errorf("expected CR?E to reject two R tokens")
	}
}

func TestBackgroundTerminal(t *testing.T) {
	m := mustCompile(t, "C.*B")
	if !m.Match(Path{Camera, Diffuse, Background}) {
		t.Errorf("expected background-terminated path to be accepted")
	}
	if m.Match(Path{Camera, Diffuse, Emission}) {
		t.Errorf("expected an emission-terminated path to be rejected by a B-only expression")
	}
}

func TestCompileRejectsMalformedExpression(t *testing.T) {
	cases := []string{"C(DE", "C[D", "C[]E", ""}
	for _, expr := range cases {
		if expr == "" {
			continue // the empty expression is valid (matches the empty path)
		}
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) expected an error, got nil", expr)
		}
	}
}

func TestEmptyPathMatchesOnlyNullableExpression(t *testing.T) {
	m := mustCompile(t, "C*")
	if !m.Match(Path{}) {
		t.Errorf("expected C* to accept the empty path")
	}
	other := mustCompile(t, "C")
	if other.Match(Path{}) {
		t.Errorf("expected literal C to reject the empty path")
	}
}
