// Package observability 注册调度核心的 Prometheus 指标。
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fitcourse"

var (
	planUpdateRunsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plan_update",
		Name:      "runs_total",
		Help:      "Number of batch plan update runs grouped by result (ok, partial, error).",
	}, []string{"result"})

	planUpdateEnrollmentsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plan_update",
		Name:      "enrollments_total",
		Help:      "Enrollments processed by batch plan updates grouped by outcome (updated, failed).",
	}, []string{"outcome"})

	planUpdateRetriesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plan_update",
		Name:      "retries_total",
		Help:      "Number of per-enrollment retry attempts.",
	})

	planUpdateBatchPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plan_update",
		Name:      "batch_failures_total",
		Help:      "Number of batches failed as a whole.",
	})

	planUpdateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "plan_update",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of batch plan update runs.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	})

	scheduleChangesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "workout_day_changes_total",
		Help:      "Workout-day changes grouped by result (ok, error).",
	}, []string{"result"})

	prunedFilesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "content",
		Name:      "pruned_files_total",
		Help:      "Daily-plan content files moved to archive.",
	})

	pruneCourseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "content",
		Name:      "prune_course_errors_total",
		Help:      "Courses skipped by the pruner because of an error.",
	})

	eventsPublishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Events written to Kafka grouped by topic and result (ok, error).",
	}, []string{"topic", "result"})

	eventsConsumedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "consumed_total",
		Help:      "Events read from Kafka grouped by topic and outcome (processed, decode_error, handler_error).",
	}, []string{"topic", "outcome"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency grouped by route, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

func init() {
	prometheus.MustRegister(
		planUpdateRunsCounter,
		planUpdateEnrollmentsCounter,
		planUpdateRetriesCounter,
		planUpdateBatchPanics,
		planUpdateDuration,
		scheduleChangesCounter,
		prunedFilesCounter,
		pruneCourseErrors,
		eventsPublishedCounter,
		eventsConsumedCounter,
		httpRequestDuration,
	)
}

// RecordPlanUpdateRun 记录一次批量更新的结果
func RecordPlanUpdateRun(updated, failed int, elapsed time.Duration) {
	result := "ok"
	switch {
	case failed > 0 && updated == 0:
		result = "error"
	case failed > 0:
		result = "partial"
	}
	planUpdateRunsCounter.WithLabelValues(result).Inc()
	planUpdateEnrollmentsCounter.WithLabelValues("updated").Add(float64(updated))
	planUpdateEnrollmentsCounter.WithLabelValues("failed").Add(float64(failed))
	planUpdateDuration.Observe(elapsed.Seconds())
}

// RecordPlanUpdateRetry 记录一次单报名重试
func RecordPlanUpdateRetry() {
	planUpdateRetriesCounter.Inc()
}

// RecordBatchFailure 记录整批失败
func RecordBatchFailure() {
	planUpdateBatchPanics.Inc()
}

// RecordScheduleChange 记录训练日修改结果
func RecordScheduleChange(err error) {
	if err != nil {
		scheduleChangesCounter.WithLabelValues("error").Inc()
		return
	}
	scheduleChangesCounter.WithLabelValues("ok").Inc()
}

// RecordPrunedFiles 记录归档文件数
func RecordPrunedFiles(n int) {
	if n > 0 {
		prunedFilesCounter.Add(float64(n))
	}
}

// RecordPruneCourseError 记录被跳过的课程
func RecordPruneCourseError() {
	pruneCourseErrors.Inc()
}

// RecordEventPublished 记录一次事件投递
func RecordEventPublished(topic string, err error) {
	if err != nil {
		eventsPublishedCounter.WithLabelValues(topic, "error").Inc()
		return
	}
	eventsPublishedCounter.WithLabelValues(topic, "ok").Inc()
}

// RecordEventConsumed 记录一次事件消费结果：processed / decode_error / handler_error
func RecordEventConsumed(topic, outcome string) {
	eventsConsumedCounter.WithLabelValues(topic, outcome).Inc()
}

// RecordHTTPRequest 记录一次 HTTP 请求耗时；route 为注册的路由模板，未匹配时为 "unmatched"
func RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
