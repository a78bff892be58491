package render

import "testing"

func TestIsBuiltinStyle(t *testing.T) {
	tests := []struct {
		style string
		want  bool
	}{
		{ThemeEmber, true},
		{ThemeDark, true},
		{ThemeLight, true},
		{ThemeDracula, true},
		{ThemeNoTTY, true},
		{"/tmp/custom.json", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsBuiltinStyle(tt.style); got != tt.want {
			t.Errorf("IsBuiltinStyle(%q) = %v, want %v", tt.style, got, tt.want)
		}
	}
}

func TestThemeNamesAreBuiltin(t *testing.T) {
	names := ThemeNames()
	if len(names) == 0 || names[0] != ThemeEmber {
		t.Fatalf("expected ember first, got %v", names)
	}
	for _, name := range names {
		if !IsBuiltinStyle(name) {
			t.Errorf("listed theme %q is not resolvable", name)
		}
	}
}

func TestEmberStyleLeavesDarkUntouched(t *testing.T) {
	first, _ := builtinStyle(ThemeEmber)
	if first.H1.BackgroundColor == nil || *first.H1.BackgroundColor != "#ff6b35" {
		t.Fatal("ember H1 background not applied")
	}
	again := emberStyle()
	*again.H1.BackgroundColor = "#000000"
	if *first.H1.BackgroundColor != "#ff6b35" {
		t.Error("ember configs should not share color pointers")
	}
}

func TestTUIThemes(t *testing.T) {
	defer SetTUITheme(EmberTheme.Name)

	if GetTUITheme().Name != "ember" {
		t.Errorf("expected ember default, got %s", GetTUITheme().Name)
	}

	if !SetTUITheme("ash") {
		t.Fatal("expected ash to be accepted")
	}
	if GetTUITheme().Name != "ash" {
		t.Errorf("expected ash, got %s", GetTUITheme().Name)
	}

	if SetTUITheme("missing") {
		t.Error("unknown theme should be rejected")
	}
	if GetTUITheme().Name != "ash" {
		t.Error("rejected theme should not change the active one")
	}

	names := TUIThemeNames()
	want := []string{"ash", "ember", "tokyonight"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
		}
	}
}
