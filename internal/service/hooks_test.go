package service

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"testing"
	"time"

	"GeetaSaathi/internal/flow"
	"GeetaSaathi/internal/model"
	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/utils"
)

func sampleUser() flow.UserRecord {
	return flow.UserRecord{
		ID:              "7",
		Phone:           "+919876543210",
		FirstName:       "Arun",
		Language:        flow.LanguageHindi,
		ExperienceLevel: flow.ExperienceFamiliar,
		Goal:            "peace",
		DailyMinutes:    0,
		CreatedAt:       time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
	}
}

type fakeUserRepo struct {
	rows map[string]*model.User
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.rows == nil {
		f.rows = make(map[string]*model.User)
	}
	f.rows[user.SessionID] = user
	return nil
}

func (f *fakeUserRepo) FindBySessionID(_ context.Context, sessionID string) (*model.User, error) {
	row, ok := f.rows[sessionID]
	if !ok {
		return nil, errors.UserNotFound
	}
	return row, nil
}

func TestUserPersistHookStoresCipher(t *testing.T) {
	repo := &fakeUserRepo{}
	hook := NewUserPersistHook(repo)

	if err := hook.OnboardingCompleted(context.Background(), "sid", sampleUser()); err != nil {
		t.Fatalf("hook: %v", err)
	}

	row := repo.rows["sid"]
	if row == nil {
		t.Fatal("row not written")
	}
	if row.PublicID != 7 || row.DailyMinutes != 0 || row.Language != "hi" {
		t.Fatalf("row = %+v", row)
	}
	if row.PhoneHash != utils.HashPhone("+919876543210") {
		t.Fatal("phone hash mismatch")
	}
	if string(row.PhoneCipher) == "+919876543210" {
		t.Fatal("phone stored in plain text")
	}

	back, err := fromUserModel(row)
	if err != nil {
		t.Fatalf("fromUserModel: %v", err)
	}
	if back != sampleUser() {
		t.Fatalf("restored = %+v", back)
	}
}

func TestUserPersistHookRejectsBadID(t *testing.T) {
	user := sampleUser()
	user.ID = "not-a-number"
	if err := NewUserPersistHook(&fakeUserRepo{}).OnboardingCompleted(context.Background(), "sid", user); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestEventPublishHook(t *testing.T) {
	var got model.OnboardingCompletedMessage
	hook := &EventPublishHook{publish: func(_ context.Context, msg model.OnboardingCompletedMessage) error {
		got = msg
		return nil
	}}

	if err := hook.OnboardingCompleted(context.Background(), "sid", sampleUser()); err != nil {
		t.Fatal(err)
	}
	if got.MessageID != "onboarding_7" || got.Language != "hi" || got.FirstName != "Arun" {
		t.Fatalf("message = %+v", got)
	}

	raw, err := base64.StdEncoding.DecodeString(got.PhoneCipherBase64)
	if err != nil {
		t.Fatal(err)
	}
	phone, err := utils.DecryptPhone(raw)
	if err != nil || phone != "+919876543210" {
		t.Fatalf("decrypted phone = %q, err = %v", phone, err)
	}
}

func TestEventPublishHookPropagatesError(t *testing.T) {
	boom := stderrors.New("broker down")
	hook := &EventPublishHook{publish: func(context.Context, model.OnboardingCompletedMessage) error { return boom }}
	if err := hook.OnboardingCompleted(context.Background(), "sid", sampleUser()); !stderrors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
