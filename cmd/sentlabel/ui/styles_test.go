package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("SENTLABEL_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when SENTLABEL_DARK_MODE=1")
	}

	t.Setenv("SENTLABEL_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when SENTLABEL_DARK_MODE is unset")
	}

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for a black COLORFGBG background")
	}
}

func TestThemeFor(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("SENTLABEL_DARK_MODE", "")
	if !ThemeFor("dark").IsDark {
		t.Errorf("ThemeFor(dark) should be dark")
	}
	if ThemeFor("light").IsDark {
		t.Errorf("ThemeFor(light) should be light")
	}
	if ThemeFor("auto").IsDark {
		t.Errorf("ThemeFor(auto) should fall back to light")
	}
}

func TestDarkBackground(t *testing.T) {
	cases := map[string]bool{
		"":             false,
		"15;0":         true,
		"0;15":         false,
		"15;default;8": true,
		"0;default;7":  false,
		"garbage":      false,
	}
	for in, want := range cases {
		if got := darkBackground(in); got != want {
			t.Errorf("darkBackground(%q) = %v, want %v", in, got, want)
		}
	}
}
