package stoplist

import "testing"

func TestEnglishCoversCommonFunctionWords(t *testing.T) {
	m := NewEnglish()
	for _, w := range []string{"the", "and", "of", "is", "you're", "wouldn"} {
		if !m.IsStop(w) {
			t.Errorf("expected %q to be a stopword", w)
		}
	}
	for _, w := range []string{"climate", "policy", "game", "results"} {
		if m.IsStop(w) {
			t.Errorf("content word %q should not be a stopword", w)
		}
	}
}

func TestEnglishReturnsCopy(t *testing.T) {
	a := English()
	a[0] = "mutated"
	if English()[0] == "mutated" {
		t.Fatal("English() must not expose the shared list")
	}
}

func TestManagerAddRemove(t *testing.T) {
	m := NewManager([]string{"The", "A"})
	if !m.IsStop("the") {
		t.Fatal("initial stops should be lowercased")
	}

	m.Add("  Reddit ")
	if !m.IsStop("reddit") {
		t.Error("Add should trim and lowercase")
	}
	m.Add("   ")
	if m.Len() != 3 {
		t.Errorf("blank Add should be ignored, got %d stops", m.Len())
	}

	m.Remove("THE")
	if m.IsStop("the") {
		t.Error("Remove should be case-insensitive")
	}
}

func TestManagerAllSorted(t *testing.T) {
	m := NewManager([]string{"zebra", "apple", "mango"})
	all := m.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(all))
	}
	if all[0] != "apple" || all[1] != "mango" || all[2] != "zebra" {
		t.Errorf("expected sorted [apple mango zebra], got %v", all)
	}
}

func TestNewEnglishExtra(t *testing.T) {
	m := NewEnglish("subreddit", "upvote")
	if !m.IsStop("subreddit") || !m.IsStop("upvote") {
		t.Fatal("extra words should be added")
	}
	if m.Len() != len(english)+2 {
		t.Errorf("expected %d stops, got %d", len(english)+2, m.Len())
	}
}
