package normalize

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Vanha Akka", "vanha akka"},
		{"keeps finnish letters", "Äkäinen Öljy", "äkäinen öljy"},
		{"keeps hyphen", "Musta-Valkoinen", "musta-valkoinen"},
		{"strips punctuation and digits", "vanha, akka! 42", "vanha akka "},
		{"composes decomposed diacritics", "pa\u0308a\u0308", "pää"},
		{"drops foreign letters", "Ørsted ñandú", "rsted and"},
		{"only punctuation", "???", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_CustomAlphabet(t *testing.T) {
	n := NewNormalizer("šž", nil)
	if got := n.Normalize("Šakki Äiti"); got != "šakki iti" {
		t.Errorf("got %q, want %q", got, "šakki iti")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, nil)
	for _, input := range []string{"Vanha Akka!", "pää-KAUPUNKI", "  x  "} {
		once := n.Normalize(input)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestDecompose(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, CompoundSplitter{})

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"two tokens", "Vanha akka", []string{"akka", "vanha"}},
		{"compound adds segments", "Pääkaupunki", []string{"kaupunki", "pää", "pääkaupunki"}},
		{"hyphenated", "musta-valkoinen kissa", []string{"kissa", "musta", "musta-valkoinen", "valkoinen"}},
		{"duplicates collapse", "akka Akka akka", []string{"akka"}},
		{"double spaces", "vanha  akka", []string{"akka", "vanha"}},
		{"only punctuation is empty", "???", []string{}},
		{"empty input", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Decompose(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decompose(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecompose_Deterministic(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, CompoundSplitter{})
	input := "Kirkkoväki vanha-akka Pääkaupunki"

	first := n.Decompose(input)
	for i := 0; i < 10; i++ {
		if got := n.Decompose(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}

func TestDecompose_ContainsEveryToken(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, CompoundSplitter{})
	input := "Kirkkoväki vanha-akka yöpuku"

	got := make(map[string]bool)
	for _, w := range n.Decompose(input) {
		got[w] = true
	}
	for _, token := range []string{"kirkkoväki", "vanha-akka", "yöpuku"} {
		if !got[token] {
			t.Errorf("word set %v is missing token %q", got, token)
		}
	}
}

func TestDecompose_TokenOrderIndependent(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, CompoundSplitter{})
	a := n.Decompose("vanha kirkkoväki akka")
	b := n.Decompose("akka vanha kirkkoväki")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("order dependent result: %v vs %v", a, b)
	}
}

func TestDecompose_NopSplitterKeepsTokens(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, NopSplitter{})
	got := n.Decompose("Pääkaupunki")
	if !reflect.DeepEqual(got, []string{"pääkaupunki"}) {
		t.Errorf("got %v", got)
	}
}

func TestCompounds(t *testing.T) {
	n := NewNormalizer(DefaultExtraLetters, CompoundSplitter{})

	got := n.Compounds("Vanha Pääkaupunki, musta-valkoinen")
	want := []string{"pää=kaupunki", "musta=valkoinen"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compounds = %v, want %v", got, want)
	}

	if got := n.Compounds("vanha akka"); got != nil {
		t.Errorf("expected no compounds, got %v", got)
	}
	if got := NewNormalizer(DefaultExtraLetters, nil).Compounds("pääkaupunki"); got != nil {
		t.Errorf("nop splitter should report no compounds, got %v", got)
	}
}
