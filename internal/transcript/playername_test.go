package transcript

import "testing"

func TestPlayerNameIntroductionPhrase(t *testing.T) {
	history := []Turn{
		{Role: RoleAssistant, Content: "Welcome to the library."},
		{Role: RoleUser, Content: "Hi, my name is Elowen, nice to meet you"},
	}
	if got := PlayerName(history); got != "Elowen" {
		t.Fatalf("PlayerName() = %q, want %q", got, "Elowen")
	}
}

func TestPlayerNameShortOpener(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "Thorne"},
	}
	if got := PlayerName(history); got != "Thorne" {
		t.Fatalf("PlayerName() = %q, want %q", got, "Thorne")
	}
}

func TestPlayerNameDefault(t *testing.T) {
	cases := []struct {
		name    string
		history []Turn
	}{
		{"empty history", nil},
		{"no user turns", []Turn{{Role: RoleAssistant, Content: "Option A or B?"}}},
		{"long first utterance", []Turn{{Role: RoleUser, Content: "I would like to investigate the rusted door bolt please"}}},
		{"non-alphabetic opener", []Turn{{Role: RoleUser, Content: "42 is my answer"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PlayerName(tc.history); got != DefaultPlayerName {
				t.Fatalf("PlayerName() = %q, want default %q", got, DefaultPlayerName)
			}
		})
	}
}

func TestPlayerNameOnlyFirstUserTurnConsulted(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "let me think about which option to pick here"},
		{Role: RoleUser, Content: "my name is Mira"},
	}
	if got := PlayerName(history); got != DefaultPlayerName {
		t.Fatalf("PlayerName() = %q, want default (later turns must not be inspected)", got)
	}
}

func TestPlayerNameTitleCasesExtractedName(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "MY NAME IS lysandra vale, adventurer"},
	}
	if got := PlayerName(history); got != "Lysandra Vale" {
		t.Fatalf("PlayerName() = %q, want %q", got, "Lysandra Vale")
	}
}
