package flow

import "testing"

func TestNextStep(t *testing.T) {
	tests := []struct {
		name  string
		draft ProfileDraft
		want  Step
	}{
		{"default draft", DefaultDraft(), StepNeedName},
		{"name only", ProfileDraft{FirstName: "Arun", DailyMinutes: 15}, StepNeedExperience},
		{"experience without name", ProfileDraft{ExperienceLevel: ExperienceNew}, StepNeedName},
		{"name and experience", ProfileDraft{FirstName: "Arun", ExperienceLevel: ExperienceNew}, StepNeedGoal},
		{"default minutes not chosen", ProfileDraft{FirstName: "Arun", ExperienceLevel: ExperienceNew, Goal: "peace", DailyMinutes: 15}, StepNeedDailyTime},
		{"all set", ProfileDraft{FirstName: "Arun", ExperienceLevel: ExperienceNew, Goal: "peace", DailyMinutes: 15, DailyTimeChosen: true}, StepReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStep(tt.draft); got != tt.want {
				t.Fatalf("NextStep = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPhaseOrder(t *testing.T) {
	order := []Phase{PhaseWelcome, PhasePhone, PhaseOTP, PhaseOnboarding, PhaseComplete}
	for i := 1; i < len(order); i++ {
		if !order[i-1].Before(order[i]) {
			t.Fatalf("%s should come before %s", order[i-1], order[i])
		}
	}

	if p, ok := PhaseOnboarding.previous(); ok {
		t.Fatalf("onboarding should not allow back navigation, got %s", p)
	}
	if Phase("lobby").Valid() {
		t.Fatal("unknown phase reported valid")
	}
}
