package similarity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase", in: "MyProject", want: "myproject"},
		{name: "underscores", in: "my_project", want: "my-project"},
		{name: "spaces", in: "my project", want: "my-project"},
		{name: "mixed runs", in: "My_  Big--Project", want: "my-big-project"},
		{name: "leading trailing", in: "  -project_ ", want: "project"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScore_ExactNormalized(t *testing.T) {
	pairs := [][2]string{
		{"api", "api"},
		{"my-project", "My_Project"},
		{"web app", "web-app"},
	}

	for _, p := range pairs {
		if got := Score(p[0], p[1]); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v, want 1.0", p[0], p[1], got)
		}
	}
}

func TestScore_SelfIdentity(t *testing.T) {
	for _, s := range []string{"a", "api-server", "Frontend Dashboard", "x_y_z"} {
		if got := Score(s, s); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestScore_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"api", "api-server"},       // substring
		{"pcm", "project-context-manager"}, // subsequence
		{"web_app", "web app"},      // exact after normalization
		{"backend", "frontend"},     // baseline only
	}

	for _, p := range pairs {
		ab := Score(p[0], p[1])
		ba := Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score(%q, %q) = %v but Score(%q, %q) = %v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestScore_Range(t *testing.T) {
	pairs := [][2]string{
		{"a", "zzzz"},
		{"api", "api-server-gateway"},
		{"pcm", "project-context-manager"},
		{"data pipeline", "data-pipeline-v2"},
		{"", "anything"},
		{"anything", ""},
	}

	for _, p := range pairs {
		got := Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestScore_SubstringBeatsBaseline(t *testing.T) {
	baseline := lcsRatio("api", "api-server")
	got := Score("api", "api-server")
	if got <= baseline {
		t.Errorf("Score(api, api-server) = %v, want > baseline %v", got, baseline)
	}
}

func TestScore_InitialismMatches(t *testing.T) {
	got := Score("pcm", "project-context-manager")
	if got < 0.8 {
		t.Errorf("Score(pcm, project-context-manager) = %v, want >= 0.8", got)
	}
}

func TestScore_TokenOverlap(t *testing.T) {
	// Shared "pipeline" token should lift the score above the raw LCS ratio.
	baseline := lcsRatio(Normalize("data pipeline"), Normalize("pipeline-infra"))
	got := Score("data pipeline", "pipeline-infra")
	if got <= baseline {
		t.Errorf("Score = %v, want > baseline %v", got, baseline)
	}
}

func TestScore_UnrelatedStaysLow(t *testing.T) {
	got := Score("frontend", "billing")
	if got >= 0.5 {
		t.Errorf("Score(frontend, billing) = %v, want < 0.5", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	first := Score("api", "api-server")
	for i := 0; i < 10; i++ {
		if got := Score("api", "api-server"); got != first {
			t.Fatalf("Score not deterministic: %v != %v", got, first)
		}
	}
}

func TestLcsLength(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 3},
		{"abc", "axbxc", 3},
		{"abc", "def", 0},
		{"", "abc", 0},
		{"api", "app", 2},
	}

	for _, tt := range tests {
		if got := lcsLength(tt.a, tt.b); got != tt.want {
			t.Errorf("lcsLength(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsSubsequence(t *testing.T) {
	tests := []struct {
		needle, hay string
		want        bool
	}{
		{"pcm", "project-context-manager", true},
		{"api", "a-p-i", true},
		{"app", "api", false},
		{"", "anything", true},
		{"long", "lo", false},
	}

	for _, tt := range tests {
		if got := isSubsequence(tt.needle, tt.hay); got != tt.want {
			t.Errorf("isSubsequence(%q, %q) = %v, want %v", tt.needle, tt.hay, got, tt.want)
		}
	}
}
