package flow

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"GeetaSaathi/pkg/errors"
)

func newTestController(t *testing.T, store Store) *Controller {
	t.Helper()
	if store == nil {
		store = NewMemoryStore()
	}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewController("sess-1", Options{
		Store:    store,
		Verifier: NewDemoVerifier(0),
		NextID:   func() (int64, error) { return 42, nil },
		Now:      func() time.Time { return fixed },
	})
}

// advanceToOTP 从 welcome 走到 otp
func advanceToOTP(t *testing.T, c *Controller) {
	t.Helper()
	ctx := context.Background()
	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.SubmitPhone(ctx, "9876543210"); err != nil {
		t.Fatalf("SubmitPhone: %v", err)
	}
}

func advanceToOnboarding(t *testing.T, c *Controller) {
	t.Helper()
	advanceToOTP(t, c)
	if _, err := c.SubmitOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitOTP: %v", err)
	}
}

func TestSubmitPhone(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   error
		wantPhase Phase
		wantPhone string
	}{
		{name: "nine digits", input: "987654321", wantErr: errors.PhoneInvalid, wantPhase: PhasePhone},
		{name: "eleven digits", input: "98765432101", wantErr: errors.PhoneInvalid, wantPhase: PhasePhone},
		{name: "letters only", input: "abcdefghij", wantErr: errors.PhoneInvalid, wantPhase: PhasePhone},
		{name: "ten digits", input: "9876543210", wantPhase: PhaseOTP, wantPhone: "+919876543210"},
		{name: "formatted", input: "98765 43210", wantPhase: PhaseOTP, wantPhone: "+919876543210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, nil)
			ctx := context.Background()
			if _, err := c.Start(ctx); err != nil {
				t.Fatalf("Start: %v", err)
			}

			snap, err := c.SubmitPhone(ctx, tt.input)
			if tt.wantErr != nil {
				if !stderrors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if snap.Phase != tt.wantPhase {
				t.Fatalf("phase = %s, want %s", snap.Phase, tt.wantPhase)
			}
			if tt.wantPhone != "" && snap.PhoneNumber != tt.wantPhone {
				t.Fatalf("phone = %q, want %q", snap.PhoneNumber, tt.wantPhone)
			}
		})
	}
}

func TestSubmitOTP(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantErr   error
		wantPhase Phase
	}{
		{name: "any six digits", code: "123456", wantPhase: PhaseOnboarding},
		{name: "zeros", code: "000000", wantPhase: PhaseOnboarding},
		{name: "five digits", code: "12345", wantErr: errors.OTPInvalid, wantPhase: PhaseOTP},
		{name: "seven digits", code: "1234567", wantErr: errors.OTPInvalid, wantPhase: PhaseOTP},
		{name: "non numeric", code: "12a456", wantErr: errors.OTPInvalid, wantPhase: PhaseOTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, nil)
			advanceToOTP(t, c)

			snap, err := c.SubmitOTP(context.Background(), tt.code)
			if tt.wantErr != nil {
				if !stderrors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if snap.Phase != tt.wantPhase {
				t.Fatalf("phase = %s, want %s", snap.Phase, tt.wantPhase)
			}
			if tt.wantErr == nil && !snap.IsAuthenticated {
				t.Fatal("expected session to be authenticated")
			}
		})
	}
}

func TestBackNavigation(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()

	if _, err := c.Back(ctx); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("Back from welcome: err = %v, want PHASE_INVALID", err)
	}

	advanceToOTP(t, c)

	snap, err := c.Back(ctx)
	if err != nil || snap.Phase != PhasePhone {
		t.Fatalf("Back from otp = %s, %v; want phone", snap.Phase, err)
	}
	snap, err = c.Back(ctx)
	if err != nil || snap.Phase != PhaseWelcome {
		t.Fatalf("Back from phone = %s, %v; want welcome", snap.Phase, err)
	}

	advanceToOnboarding(t, c)
	if _, err := c.Back(ctx); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("Back from onboarding: err = %v, want PHASE_INVALID", err)
	}
}

func TestPhaseGuards(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()

	if _, err := c.SubmitPhone(ctx, "9876543210"); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("SubmitPhone in welcome: err = %v", err)
	}
	if _, err := c.SubmitOTP(ctx, "123456"); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("SubmitOTP in welcome: err = %v", err)
	}
	if _, err := c.SetName(ctx, "Arun", ""); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("SetName in welcome: err = %v", err)
	}
	if _, err := c.CompleteOnboarding(ctx); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("CompleteOnboarding in welcome: err = %v", err)
	}
	if _, err := c.ResendOTP(ctx); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("ResendOTP in welcome: err = %v", err)
	}

	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Start(ctx); !stderrors.Is(err, errors.PhaseInvalid) {
		t.Fatalf("second Start: err = %v", err)
	}
}

func TestSetPhoneKeepsDigits(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()
	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap, err := c.SetPhone(ctx, "98-765 4")
	if err != nil {
		t.Fatalf("SetPhone: %v", err)
	}
	if snap.PhoneNumber != "987654" || snap.Phase != PhasePhone {
		t.Fatalf("snapshot = %+v", snap)
	}

	if _, err := c.SetPhone(ctx, "123456789012"); !stderrors.Is(err, errors.PhoneInvalid) {
		t.Fatalf("SetPhone too long: err = %v", err)
	}
}

func TestOnboardingDerivedSteps(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()
	advanceToOnboarding(t, c)

	snap := c.Snapshot()
	if snap.Step != StepNeedName {
		t.Fatalf("step = %s, want need_name", snap.Step)
	}
	if snap.Draft.DailyMinutes != DefaultDailyMinutes {
		t.Fatalf("default daily minutes = %d", snap.Draft.DailyMinutes)
	}

	steps := []struct {
		apply func() (Snapshot, error)
		want  Step
	}{
		{func() (Snapshot, error) { return c.SetName(ctx, "Arun", "") }, StepNeedExperience},
		{func() (Snapshot, error) { return c.SetExperience(ctx, ExperienceFamiliar) }, StepNeedGoal},
		{func() (Snapshot, error) { return c.SetGoal(ctx, "peace") }, StepNeedDailyTime},
		{func() (Snapshot, error) { return c.SetDailyTime(ctx, 30) }, StepReady},
	}
	for i, s := range steps {
		snap, err := s.apply()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if snap.Step != s.want {
			t.Fatalf("step %d: got %s, want %s", i, snap.Step, s.want)
		}
		if snap.Phase != PhaseOnboarding {
			t.Fatalf("step %d: phase = %s", i, snap.Phase)
		}
	}

	snap, err := c.CompleteOnboarding(ctx)
	if err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if snap.Phase != PhaseComplete {
		t.Fatalf("phase = %s, want complete", snap.Phase)
	}

	u := snap.User
	if u == nil {
		t.Fatal("expected user record")
	}
	if u.ID != "42" || u.CreatedAt.IsZero() {
		t.Fatalf("user id/timestamp not generated: %+v", u)
	}
	if u.Phone != "+919876543210" || u.FirstName != "Arun" || u.ExperienceLevel != ExperienceFamiliar ||
		u.Goal != "peace" || u.DailyMinutes != 30 || u.Language != LanguageEnglish {
		t.Fatalf("unexpected user record: %+v", u)
	}
}

func TestCompleteOnboardingRequiresAllFields(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()
	advanceToOnboarding(t, c)

	if _, err := c.SetName(ctx, "Arun", "Kumar"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if _, err := c.SetExperience(ctx, ExperienceNew); err != nil {
		t.Fatalf("SetExperience: %v", err)
	}

	snap, err := c.CompleteOnboarding(ctx)
	if !stderrors.Is(err, errors.OnboardingIncomplete) {
		t.Fatalf("err = %v, want ONBOARDING_INCOMPLETE", err)
	}
	if snap.Phase != PhaseOnboarding || snap.User != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestOnboardingValidation(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()
	advanceToOnboarding(t, c)

	tests := []struct {
		name  string
		apply func() error
		want  error
	}{
		{"short name", func() error { _, err := c.SetName(ctx, " A ", ""); return err }, errors.NameInvalid},
		{"blank name", func() error { _, err := c.SetName(ctx, "", "Kumar"); return err }, errors.NameInvalid},
		{"bad experience", func() error { _, err := c.SetExperience(ctx, "expert"); return err }, errors.ExperienceInvalid},
		{"empty goal", func() error { _, err := c.SetGoal(ctx, "  "); return err }, errors.GoalInvalid},
		{"goal with spaces", func() error { _, err := c.SetGoal(ctx, "inner peace"); return err }, errors.GoalInvalid},
		{"negative minutes", func() error { _, err := c.SetDailyTime(ctx, -5); return err }, errors.DailyTimeInvalid},
		{"too many minutes", func() error { _, err := c.SetDailyTime(ctx, 600); return err }, errors.DailyTimeInvalid},
		{"bad language", func() error { _, err := c.SetLanguage(ctx, "fr"); return err }, errors.LanguageInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.apply(); !stderrors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if step := c.Step(); step != StepNeedName {
				t.Fatalf("draft changed on validation error, step = %s", step)
			}
		})
	}
}

func TestFlexibleDailyTimeCompletes(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()
	advanceToOnboarding(t, c)

	_, _ = c.SetName(ctx, "Meera", "")
	_, _ = c.SetExperience(ctx, ExperienceAdvanced)
	_, _ = c.SetGoal(ctx, "all")
	snap, err := c.SetDailyTime(ctx, 0)
	if err != nil {
		t.Fatalf("SetDailyTime(0): %v", err)
	}
	if snap.Step != StepReady {
		t.Fatalf("step = %s, want ready", snap.Step)
	}
}

func TestRestoreResumesAtDerivedStep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := DefaultState()
	saved.Phase = PhaseOnboarding
	saved.PhoneNumber = "+919876543210"
	saved.IsAuthenticated = true
	saved.Draft.FirstName = "Arun"
	if err := store.SaveSession(ctx, "sess-restore", saved); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	c, err := Restore(ctx, "sess-restore", Options{Store: store})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	snap := c.Snapshot()
	if snap.Phase != PhaseOnboarding || snap.Step != StepNeedExperience {
		t.Fatalf("restored at %s/%s, want onboarding/need_experience", snap.Phase, snap.Step)
	}
}

func TestRestoreAfterEveryMutation(t *testing.T) {
	store := NewMemoryStore()
	c := newTestController(t, store)
	ctx := context.Background()
	advanceToOnboarding(t, c)
	if _, err := c.SetName(ctx, "Arun", ""); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if _, err := c.SetExperience(ctx, ExperienceNew); err != nil {
		t.Fatalf("SetExperience: %v", err)
	}

	restored, err := Restore(ctx, c.SessionID(), Options{Store: store})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := restored.Step(); got != StepNeedGoal {
		t.Fatalf("step = %s, want need_goal", got)
	}
	if got := restored.Snapshot().PhoneNumber; got != "+919876543210" {
		t.Fatalf("phone = %q", got)
	}
}

func TestRestoreMissingSession(t *testing.T) {
	_, err := Restore(context.Background(), "nope", Options{Store: NewMemoryStore()})
	if !stderrors.Is(err, errors.SessionNotFound) {
		t.Fatalf("err = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestRestoreRepairsIncompleteCompletedSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := DefaultState()
	saved.Phase = PhaseComplete
	saved.Draft.FirstName = "Arun"
	_ = store.SaveSession(ctx, "sess-broken", saved)

	c, err := Restore(ctx, "sess-broken", Options{Store: store})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	snap := c.Snapshot()
	if snap.Phase != PhaseOnboarding || snap.Step != StepNeedExperience {
		t.Fatalf("repaired to %s/%s", snap.Phase, snap.Step)
	}
}

func TestDraftRegressionGuard(t *testing.T) {
	c := newTestController(t, nil)
	ctx := context.Background()
	advanceToOnboarding(t, c)
	if _, err := c.SetName(ctx, "Arun", ""); err != nil {
		t.Fatalf("SetName: %v", err)
	}

	c.mu.Lock()
	_, err := c.updateDraftLocked(ctx, func(d *ProfileDraft) { d.FirstName = "" })
	c.mu.Unlock()

	if !stderrors.Is(err, errors.FieldRegression) {
		t.Fatalf("err = %v, want FIELD_REGRESSION", err)
	}
	if got := c.Snapshot().Draft.FirstName; got != "Arun" {
		t.Fatalf("first name = %q, want unchanged", got)
	}
}

func TestLogoutClearsBothRecords(t *testing.T) {
	store := NewMemoryStore()
	c := newTestController(t, store)
	ctx := context.Background()
	advanceToOnboarding(t, c)
	_, _ = c.SetName(ctx, "Arun", "")
	_, _ = c.SetExperience(ctx, ExperienceNew)
	_, _ = c.SetGoal(ctx, "learning")
	_, _ = c.SetDailyTime(ctx, 15)
	if _, err := c.CompleteOnboarding(ctx); err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}

	if _, err := store.LoadUser(ctx, c.SessionID()); err != nil {
		t.Fatalf("user record not persisted: %v", err)
	}

	snap := c.Logout(ctx)
	if snap.Phase != PhaseWelcome || snap.User != nil || snap.PhoneNumber != "" {
		t.Fatalf("state not reset: %+v", snap)
	}
	if snap.Draft != DefaultDraft() {
		t.Fatalf("draft not reset: %+v", snap.Draft)
	}
	if _, err := store.LoadSession(ctx, c.SessionID()); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("session record still present: %v", err)
	}
	if _, err := store.LoadUser(ctx, c.SessionID()); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("user record still present: %v", err)
	}
}

func TestPhaseOrderMonotonic(t *testing.T) {
	store := &recordingStore{MemoryStore: NewMemoryStore()}
	c := newTestController(t, store)
	ctx := context.Background()

	advanceToOTP(t, c)
	_, _ = c.Back(ctx)
	_, _ = c.SubmitPhone(ctx, "9876543210")
	_, _ = c.SubmitOTP(ctx, "123456")
	_, _ = c.SetName(ctx, "Arun", "")
	_, _ = c.SetExperience(ctx, ExperienceNew)
	_, _ = c.SetGoal(ctx, "learning")
	_, _ = c.SetDailyTime(ctx, 5)
	_, _ = c.CompleteOnboarding(ctx)

	phases := store.phases
	for i := 1; i < len(phases); i++ {
		prev, cur := phases[i-1], phases[i]
		if !cur.Before(prev) {
			continue
		}
		back, ok := prev.previous()
		if !ok || back != cur {
			t.Fatalf("illegal backward transition %s -> %s", prev, cur)
		}
	}
	if last := phases[len(phases)-1]; last != PhaseComplete {
		t.Fatalf("last phase = %s", last)
	}
}

func TestStorageFailureIsIgnored(t *testing.T) {
	c := newTestController(t, failingStore{})
	advanceToOnboarding(t, c)

	if got := c.Snapshot().Phase; got != PhaseOnboarding {
		t.Fatalf("phase = %s, want onboarding despite storage failure", got)
	}
}

func TestSubmitOTPDiscardsStaleResult(t *testing.T) {
	v := &blockingVerifier{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController("sess-stale", Options{Verifier: v})
	ctx := context.Background()
	advanceToOTP(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitOTP(ctx, "123456")
		done <- err
	}()
	<-v.entered

	if snap := c.Snapshot(); !snap.Verifying {
		t.Fatal("expected verifying flag while suspended")
	}
	if _, err := c.SubmitOTP(ctx, "654321"); !stderrors.Is(err, errors.VerificationInProgress) {
		t.Fatalf("concurrent submit: err = %v", err)
	}

	if _, err := c.Back(ctx); err != nil {
		t.Fatalf("Back: %v", err)
	}
	close(v.release)

	if err := <-done; !stderrors.Is(err, errors.SessionStale) {
		t.Fatalf("err = %v, want SESSION_STALE", err)
	}
	if got := c.Snapshot().Phase; got != PhasePhone {
		t.Fatalf("phase = %s, want phone", got)
	}
}

func TestSubmitPhoneReleasesLockDuringSend(t *testing.T) {
	v := &slowSender{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController("sess-send", Options{Verifier: v})
	ctx := context.Background()
	if _, err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitPhone(ctx, "9876543210")
		done <- err
	}()
	<-v.entered

	snapped := make(chan Snapshot, 1)
	go func() { snapped <- c.Snapshot() }()
	select {
	case snap := <-snapped:
		if !snap.Verifying || snap.Phase != PhasePhone {
			t.Fatalf("snapshot while sending = %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked while the code was being sent")
	}

	if _, err := c.SubmitPhone(ctx, "9876543210"); !stderrors.Is(err, errors.VerificationInProgress) {
		t.Fatalf("concurrent submit: err = %v", err)
	}

	close(v.release)
	if err := <-done; err != nil {
		t.Fatalf("SubmitPhone: %v", err)
	}
	if snap := c.Snapshot(); snap.Phase != PhaseOTP || snap.Verifying {
		t.Fatalf("snapshot after send = %+v", snap)
	}
}

func TestSubmitPhoneDiscardedAfterBack(t *testing.T) {
	v := &slowSender{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController("sess-send-back", Options{Verifier: v})
	ctx := context.Background()
	if _, err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitPhone(ctx, "9876543210")
		done <- err
	}()
	<-v.entered

	if _, err := c.Back(ctx); err != nil {
		t.Fatalf("Back: %v", err)
	}
	close(v.release)

	if err := <-done; !stderrors.Is(err, errors.SessionStale) {
		t.Fatalf("err = %v, want SESSION_STALE", err)
	}
	if got := c.Snapshot().Phase; got != PhaseWelcome {
		t.Fatalf("phase = %s, want welcome", got)
	}
}

func TestDetachedControllerStopsWriting(t *testing.T) {
	store := &recordingStore{MemoryStore: NewMemoryStore()}
	c := newTestController(t, store)
	ctx := context.Background()
	advanceToOTP(t, c)
	writes := len(store.phases)

	c.Detach(errors.SessionNotFound)

	if _, err := c.Back(ctx); !stderrors.Is(err, errors.SessionNotFound) {
		t.Fatalf("Back: err = %v", err)
	}
	if _, err := c.SetLanguage(ctx, LanguageHindi); !stderrors.Is(err, errors.SessionNotFound) {
		t.Fatalf("SetLanguage: err = %v", err)
	}
	if _, err := c.SubmitOTP(ctx, "123456"); !stderrors.Is(err, errors.SessionNotFound) {
		t.Fatalf("SubmitOTP: err = %v", err)
	}
	if _, err := c.ResendOTP(ctx); !stderrors.Is(err, errors.SessionNotFound) {
		t.Fatalf("ResendOTP: err = %v", err)
	}

	if len(store.phases) != writes {
		t.Fatalf("detached controller wrote to the store: %v", store.phases)
	}
	saved, err := store.LoadSession(ctx, c.SessionID())
	if err != nil || saved.Phase != PhaseOTP || saved.Draft.Language != LanguageEnglish {
		t.Fatalf("stored state changed after detach: %+v, %v", saved, err)
	}
}

func TestDetachDiscardsPendingVerification(t *testing.T) {
	v := &blockingVerifier{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController("sess-detach", Options{Verifier: v})
	ctx := context.Background()
	advanceToOTP(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitOTP(ctx, "123456")
		done <- err
	}()
	<-v.entered

	c.Detach(errors.SessionStale)
	close(v.release)

	if err := <-done; !stderrors.Is(err, errors.SessionStale) {
		t.Fatalf("err = %v, want SESSION_STALE", err)
	}
	if snap := c.Snapshot(); snap.Phase != PhaseOTP || snap.IsAuthenticated {
		t.Fatalf("detached controller advanced: %+v", snap)
	}
}

func TestSubmitOTPCancelled(t *testing.T) {
	c := NewController("sess-cancel", Options{Verifier: NewDemoVerifier(time.Hour)})
	advanceToOTP(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := c.SubmitOTP(ctx, "123456")
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if snap.Phase != PhaseOTP || snap.Verifying {
		t.Fatalf("unexpected snapshot after cancel: %+v", snap)
	}
}

func TestResendOTP(t *testing.T) {
	c := NewController("sess-resend", Options{
		Verifier:    &DemoVerifier{},
		ResendAfter: 30 * time.Second,
	})
	advanceToOTP(t, c)

	after, err := c.ResendOTP(context.Background())
	if err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
	if after != 30*time.Second {
		t.Fatalf("resend after = %s", after)
	}
	if got := c.Snapshot().Phase; got != PhaseOTP {
		t.Fatalf("phase = %s", got)
	}
}

func TestCompletionHooks(t *testing.T) {
	hook := &recordingHook{}
	c := NewController("sess-hook", Options{Hooks: []CompletionHook{hook, failingHook{}}})
	ctx := context.Background()
	advanceToOnboarding(t, c)
	_, _ = c.SetName(ctx, "Arun", "")
	_, _ = c.SetExperience(ctx, ExperienceNew)
	_, _ = c.SetGoal(ctx, "guidance")
	_, _ = c.SetDailyTime(ctx, 15)

	if _, err := c.CompleteOnboarding(ctx); err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if len(hook.users) != 1 || hook.users[0].Goal != "guidance" {
		t.Fatalf("hook calls = %+v", hook.users)
	}
}

type recordingStore struct {
	*MemoryStore
	phases []Phase
}

func (r *recordingStore) SaveSession(ctx context.Context, id string, s State) error {
	if n := len(r.phases); n == 0 || r.phases[n-1] != s.Phase {
		r.phases = append(r.phases, s.Phase)
	}
	return r.MemoryStore.SaveSession(ctx, id, s)
}

type failingStore struct{}

var errStorageDown = stderrors.New("storage unavailable")

func (failingStore) LoadSession(context.Context, string) (*State, error) { return nil, errStorageDown }
func (failingStore) SaveSession(context.Context, string, State) error    { return errStorageDown }
func (failingStore) LoadUser(context.Context, string) (*UserRecord, error) {
	return nil, errStorageDown
}
func (failingStore) SaveUser(context.Context, string, UserRecord) error { return errStorageDown }
func (failingStore) Clear(context.Context, string) error                { return errStorageDown }

type blockingVerifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingVerifier) Send(context.Context, string) error   { return nil }
func (b *blockingVerifier) Resend(context.Context, string) error { return nil }
func (b *blockingVerifier) Verify(ctx context.Context, _, _ string) error {
	close(b.entered)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// slowSender 的 Send 阻塞到 release 关闭
type slowSender struct {
	entered chan struct{}
	release chan struct{}
}

func (s *slowSender) Send(ctx context.Context, _ string) error {
	close(s.entered)
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
func (s *slowSender) Resend(context.Context, string) error         { return nil }
func (s *slowSender) Verify(context.Context, string, string) error { return nil }

type recordingHook struct {
	users []UserRecord
}

func (r *recordingHook) OnboardingCompleted(_ context.Context, _ string, u UserRecord) error {
	r.users = append(r.users, u)
	return nil
}

type failingHook struct{}

func (failingHook) OnboardingCompleted(context.Context, string, UserRecord) error {
	return stderrors.New("sink down")
}
