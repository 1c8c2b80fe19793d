package flow

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"GeetaSaathi/pkg/errors"
	"GeetaSaathi/pkg/logger"
	"GeetaSaathi/pkg/metrics"
	"GeetaSaathi/utils"
)

const (
	DefaultCountryCode = "+91"
	DefaultResendAfter = 30 * time.Second
)

// CompletionHook 在引导完成后触发，例如写入数据库或发布事件。
// 返回的错误只记录日志，不影响流程。
type CompletionHook interface {
	OnboardingCompleted(ctx context.Context, sessionID string, user UserRecord) error
}

// Options Controller 的依赖，全部显式传入。
type Options struct {
	Store       Store
	Verifier    Verifier
	NextID      func() (int64, error)
	Hooks       []CompletionHook
	Now         func() time.Time
	CountryCode string
	ResendAfter time.Duration
}

func (o *Options) applyDefaults() {
	if o.Store == nil {
		o.Store = NewMemoryStore()
	}
	if o.Verifier == nil {
		o.Verifier = NewDemoVerifier(0)
	}
	if o.NextID == nil {
		o.NextID = func() (int64, error) { return time.Now().UnixMilli(), nil }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.CountryCode == "" {
		o.CountryCode = DefaultCountryCode
	}
	if o.ResendAfter <= 0 {
		o.ResendAfter = DefaultResendAfter
	}
}

// Controller 单个会话的阶段控制器，是状态唯一的修改入口。
type Controller struct {
	mu        sync.Mutex
	sessionID string
	opts      Options

	state State
	user  *UserRecord

	// generation 在阶段变化或登出时递增，用来识别验证挂起期间会话是否被改动
	generation uint64
	verifying  bool
	// reached 本进程内观察到的最远子步骤，只在内存中，用于防止草稿回退
	reached Step
	// detached 非空时 Controller 已失效，修改操作直接返回该错误且不再写存储
	detached error
}

// NewController 创建处于 welcome 阶段的新会话。
func NewController(sessionID string, opts Options) *Controller {
	opts.applyDefaults()
	return &Controller{
		sessionID: sessionID,
		opts:      opts,
		state:     DefaultState(),
		reached:   StepNeedName,
	}
}

// Restore 从存储中恢复会话，子步骤根据草稿重新推导。
func Restore(ctx context.Context, sessionID string, opts Options) (*Controller, error) {
	opts.applyDefaults()

	saved, err := opts.Store.LoadSession(ctx, sessionID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.SessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	c := &Controller{
		sessionID: sessionID,
		opts:      opts,
		state:     *saved,
	}

	if user, err := opts.Store.LoadUser(ctx, sessionID); err == nil {
		c.user = user
	} else if !stderrors.Is(err, ErrNotFound) {
		logger.Logger.Warn("Failed to load user record",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	c.repair()
	c.reached = NextStep(c.state.Draft)
	return c, nil
}

// repair 修正无法由正常流转产生的状态
func (c *Controller) repair() {
	if !c.state.Phase.Valid() {
		logger.Logger.Warn("Restored session has unknown phase, resetting",
			zap.String("session_id", c.sessionID),
			zap.String("phase", string(c.state.Phase)),
		)
		c.state = DefaultState()
		c.user = nil
		return
	}

	if !c.state.Draft.Language.Valid() {
		c.state.Draft.Language = LanguageEnglish
	}

	if c.state.Phase == PhaseComplete && (c.user == nil || NextStep(c.state.Draft) != StepReady) {
		logger.Logger.Warn("Restored completed session without a full profile, resuming onboarding",
			zap.String("session_id", c.sessionID),
		)
		c.state.Phase = PhaseOnboarding
		c.user = nil
	}
}

func (c *Controller) SessionID() string {
	return c.sessionID
}

// Snapshot 返回当前状态的副本。
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Step 返回推导出的引导子步骤。
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NextStep(c.state.Draft)
}

// Persist 主动保存一次会话，用于新建会话时落盘。
func (c *Controller) Persist(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistLocked(ctx)
}

// Start welcome → phone。
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(PhaseWelcome); err != nil {
		return c.snapshotLocked(), err
	}

	c.transitionLocked(ctx, PhasePhone)
	return c.snapshotLocked(), nil
}

// Back 只支持 phone → welcome、otp → phone。
func (c *Controller) Back(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached != nil {
		return c.snapshotLocked(), c.detached
	}
	prev, ok := c.state.Phase.previous()
	if !ok {
		return c.snapshotLocked(), errors.PhaseInvalid
	}

	if c.state.Phase == PhaseOTP {
		c.state.OTPCode = ""
	}
	c.transitionLocked(ctx, prev)
	return c.snapshotLocked(), nil
}

// SetLanguage 完成前任意阶段都可以切换语言。
func (c *Controller) SetLanguage(ctx context.Context, lang Language) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached != nil {
		return c.snapshotLocked(), c.detached
	}
	if !lang.Valid() {
		return c.snapshotLocked(), errors.LanguageInvalid
	}
	if c.state.Phase == PhaseComplete {
		return c.snapshotLocked(), errors.PhaseInvalid
	}

	return c.updateDraftLocked(ctx, func(d *ProfileDraft) {
		d.Language = lang
	})
}

// SetPhone 记录输入中的手机号（只保留数字），不触发流转。
func (c *Controller) SetPhone(ctx context.Context, number string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(PhasePhone); err != nil {
		return c.snapshotLocked(), err
	}

	digits := utils.DigitsOnly(number)
	if len(digits) > utils.PhoneDigits {
		return c.snapshotLocked(), errors.PhoneInvalid
	}

	c.state.PhoneNumber = digits
	c.persistLocked(ctx)
	return c.snapshotLocked(), nil
}

// SubmitPhone 校验 10 位手机号，下发验证码后进入 otp。
// 下发期间释放锁，结束后确认会话没有被改动才进入 otp。
func (c *Controller) SubmitPhone(ctx context.Context, number string) (Snapshot, error) {
	c.mu.Lock()
	if err := c.requireLocked(PhasePhone); err != nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), err
	}

	digits := utils.DigitsOnly(number)
	if !utils.ValidatePhone(digits) {
		defer c.mu.Unlock()
		return c.snapshotLocked(), errors.PhoneInvalid
	}
	if c.verifying {
		defer c.mu.Unlock()
		return c.snapshotLocked(), errors.VerificationInProgress
	}

	c.verifying = true
	gen := c.generation
	phone := c.opts.CountryCode + digits
	c.mu.Unlock()

	err := c.opts.Verifier.Send(ctx, phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return c.snapshotLocked(), errors.SessionStale
	}
	c.verifying = false
	if err != nil {
		return c.snapshotLocked(), err
	}

	c.state.PhoneNumber = phone
	c.state.OTPCode = ""
	c.transitionLocked(ctx, PhaseOTP)
	return c.snapshotLocked(), nil
}

// SubmitOTP 校验 6 位验证码。校验期间释放锁，结束后确认会话没有被改动才生效。
func (c *Controller) SubmitOTP(ctx context.Context, code string) (Snapshot, error) {
	c.mu.Lock()
	if err := c.requireLocked(PhaseOTP); err != nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), err
	}
	if !utils.ValidateOTP(code) {
		defer c.mu.Unlock()
		metrics.RecordOTPVerification(ctx, "malformed")
		return c.snapshotLocked(), errors.OTPInvalid
	}
	if c.verifying {
		defer c.mu.Unlock()
		return c.snapshotLocked(), errors.VerificationInProgress
	}

	c.verifying = true
	c.state.OTPCode = code
	gen := c.generation
	phone := c.state.PhoneNumber
	c.persistLocked(ctx)
	c.mu.Unlock()

	err := c.opts.Verifier.Verify(ctx, phone, code)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		metrics.RecordOTPVerification(ctx, "stale")
		return c.snapshotLocked(), errors.SessionStale
	}
	c.verifying = false

	if err != nil {
		c.state.OTPCode = ""
		c.persistLocked(ctx)
		metrics.RecordOTPVerification(ctx, "rejected")
		logger.Logger.Info("OTP verification failed",
			zap.String("session_id", c.sessionID),
			zap.Error(err),
		)
		return c.snapshotLocked(), err
	}

	metrics.RecordOTPVerification(ctx, "accepted")
	c.state.OTPCode = ""
	c.state.IsAuthenticated = true
	c.transitionLocked(ctx, PhaseOnboarding)
	return c.snapshotLocked(), nil
}

// ResendOTP 重新下发验证码，返回客户端需要重新开始的倒计时。
// 倒计时由页面维护，这里不改变状态。
func (c *Controller) ResendOTP(ctx context.Context) (time.Duration, error) {
	c.mu.Lock()
	if err := c.requireLocked(PhaseOTP); err != nil {
		c.mu.Unlock()
		return 0, err
	}
	phone := c.state.PhoneNumber
	c.mu.Unlock()

	if err := c.opts.Verifier.Resend(ctx, phone); err != nil {
		return 0, err
	}
	return c.opts.ResendAfter, nil
}

// SetName 填写名字，姓氏可选。
func (c *Controller) SetName(ctx context.Context, first, last string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(PhaseOnboarding); err != nil {
		return c.snapshotLocked(), err
	}

	first, last, err := validateName(first, last)
	if err != nil {
		return c.snapshotLocked(), err
	}

	return c.updateDraftLocked(ctx, func(d *ProfileDraft) {
		d.FirstName = first
		d.LastName = last
	})
}

func (c *Controller) SetExperience(ctx context.Context, level Experience) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(PhaseOnboarding); err != nil {
		return c.snapshotLocked(), err
	}
	if !level.Valid() {
		return c.snapshotLocked(), errors.ExperienceInvalid
	}

	return c.updateDraftLocked(ctx, func(d *ProfileDraft) {
		d.ExperienceLevel = level
	})
}

func (c *Controller) SetGoal(ctx context.Context, goal string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(PhaseOnboarding); err != nil {
		return c.snapshotLocked(), err
	}

	goal, err := validateGoal(goal)
	if err != nil {
		return c.snapshotLocked(), err
	}

	return c.updateDraftLocked(ctx, func(d *ProfileDraft) {
		d.Goal = goal
	})
}

// SetDailyTime 0 表示时间灵活。
func (c *Controller) SetDailyTime(ctx context.Context, minutes int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(PhaseOnboarding); err != nil {
		return c.snapshotLocked(), err
	}
	if err := validateDailyMinutes(minutes); err != nil {
		return c.snapshotLocked(), err
	}

	return c.updateDraftLocked(ctx, func(d *ProfileDraft) {
		d.DailyMinutes = minutes
		d.DailyTimeChosen = true
	})
}

// CompleteOnboarding 生成最终用户记录并进入 complete。
func (c *Controller) CompleteOnboarding(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(PhaseOnboarding); err != nil {
		return c.snapshotLocked(), err
	}
	if NextStep(c.state.Draft) != StepReady {
		return c.snapshotLocked(), errors.OnboardingIncomplete
	}

	id, err := c.opts.NextID()
	if err != nil {
		return c.snapshotLocked(), fmt.Errorf("failed to generate user ID: %w", err)
	}

	d := c.state.Draft
	user := UserRecord{
		ID:              strconv.FormatInt(id, 10),
		Phone:           c.state.PhoneNumber,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Language:        d.Language,
		ExperienceLevel: d.ExperienceLevel,
		Goal:            d.Goal,
		DailyMinutes:    d.DailyMinutes,
		CreatedAt:       c.opts.Now().UTC(),
	}

	if err := c.opts.Store.SaveUser(ctx, c.sessionID, user); err != nil {
		logger.Logger.Warn("Failed to persist user record",
			zap.String("session_id", c.sessionID),
			zap.Error(err),
		)
	}

	c.user = &user
	c.state.IsAuthenticated = true
	c.transitionLocked(ctx, PhaseComplete)

	metrics.RecordOnboardingCompleted(ctx, string(user.Language), string(user.ExperienceLevel))
	logger.Logger.Info("Onboarding completed",
		zap.String("session_id", c.sessionID),
		zap.String("user_id", user.ID),
	)

	for _, h := range c.opts.Hooks {
		if err := h.OnboardingCompleted(ctx, c.sessionID, user); err != nil {
			logger.Logger.Warn("Onboarding completion hook failed",
				zap.String("session_id", c.sessionID),
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	return c.snapshotLocked(), nil
}

// Logout 清除两份持久化记录并在内存中重置为初始状态。
func (c *Controller) Logout(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.opts.Store.Clear(ctx, c.sessionID); err != nil {
		logger.Logger.Warn("Failed to clear persisted session",
			zap.String("session_id", c.sessionID),
			zap.Error(err),
		)
	}

	from := c.state.Phase
	c.state = DefaultState()
	c.user = nil
	c.verifying = false
	c.reached = StepNeedName
	c.generation++

	metrics.RecordPhaseTransition(ctx, string(from), string(PhaseWelcome))
	return c.snapshotLocked()
}

// Detach 使 Controller 失效，之后的修改返回 reason，挂起中的验证结果被丢弃。
// 会话登出或从内存淘汰时调用，此后该会话只能通过重新恢复得到新的 Controller。
func (c *Controller) Detach(reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached != nil {
		return
	}
	c.detached = reason
	c.generation++
	c.verifying = false
}

// requireLocked 检查 Controller 仍然有效并处于指定阶段
func (c *Controller) requireLocked(phase Phase) error {
	if c.detached != nil {
		return c.detached
	}
	if c.state.Phase != phase {
		return errors.PhaseInvalid
	}
	return nil
}

// updateDraftLocked 在副本上修改草稿，若推导出的子步骤比已到达的更靠前则拒绝
func (c *Controller) updateDraftLocked(ctx context.Context, mutate func(*ProfileDraft)) (Snapshot, error) {
	next := c.state.Draft
	mutate(&next)

	step := NextStep(next)
	if step.Before(c.reached) {
		logger.Logger.Warn("Rejected draft update that would regress onboarding",
			zap.String("session_id", c.sessionID),
			zap.String("reached", string(c.reached)),
			zap.String("step", string(step)),
		)
		return c.snapshotLocked(), errors.FieldRegression
	}

	c.state.Draft = next
	c.reached = step
	c.persistLocked(ctx)
	return c.snapshotLocked(), nil
}

func (c *Controller) transitionLocked(ctx context.Context, to Phase) {
	from := c.state.Phase
	c.state.Phase = to
	c.generation++
	// 挂起中的验证在返回时会因 generation 不一致被丢弃
	c.verifying = false
	c.persistLocked(ctx)

	metrics.RecordPhaseTransition(ctx, string(from), string(to))
	logger.Logger.Debug("Phase transition",
		zap.String("session_id", c.sessionID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

// persistLocked 尽力保存，失败只记日志，内存状态仍然正确
func (c *Controller) persistLocked(ctx context.Context) {
	if c.detached != nil {
		return
	}
	c.state.UpdatedAt = c.opts.Now().UTC()
	if err := c.opts.Store.SaveSession(ctx, c.sessionID, c.state); err != nil {
		logger.Logger.Warn("Failed to persist session state",
			zap.String("session_id", c.sessionID),
			zap.Error(err),
		)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID:       c.sessionID,
		Phase:           c.state.Phase,
		PhoneNumber:     c.state.PhoneNumber,
		IsAuthenticated: c.state.IsAuthenticated,
		Draft:           c.state.Draft,
		Verifying:       c.verifying,
	}
	if c.state.Phase == PhaseOnboarding {
		s.Step = NextStep(c.state.Draft)
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}
