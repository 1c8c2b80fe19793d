package flow

// Step 引导子步骤，由草稿推导而来，不单独存储。
type Step string

const (
	StepNeedName       Step = "need_name"
	StepNeedExperience Step = "need_experience"
	StepNeedGoal       Step = "need_goal"
	StepNeedDailyTime  Step = "need_daily_time"
	StepReady          Step = "ready"
)

var stepOrder = map[Step]int{
	StepNeedName:       0,
	StepNeedExperience: 1,
	StepNeedGoal:       2,
	StepNeedDailyTime:  3,
	StepReady:          4,
}

// Before 判断 s 是否在 other 之前。
func (s Step) Before(other Step) bool {
	return stepOrder[s] < stepOrder[other]
}

// NextStep 按 firstName → experience → goal → dailyTime 的固定顺序，
// 返回第一个仍为空的必填字段；全部填写后返回 StepReady。
func NextStep(d ProfileDraft) Step {
	switch {
	case d.FirstName == "":
		return StepNeedName
	case d.ExperienceLevel == "":
		return StepNeedExperience
	case d.Goal == "":
		return StepNeedGoal
	case !d.DailyTimeChosen:
		return StepNeedDailyTime
	default:
		return StepReady
	}
}
