package metrics

import "time"

// SubmissionRejected records a submit that failed validation, one count per
// offending field.
func SubmissionRejected(form string, fields []string) {
	SubmissionsTotal.WithLabelValues(form, "invalid").Inc()
	for _, field := range fields {
		ValidationFailuresTotal.WithLabelValues(form, field).Inc()
	}
}

// SubmissionDuplicate records a submit refused because one was pending.
func SubmissionDuplicate(form string) {
	SubmissionsTotal.WithLabelValues(form, "duplicate").Inc()
}

// SubmissionSucceeded records a completed submission and its pending time.
func SubmissionSucceeded(form string, duration time.Duration) {
	SubmissionsTotal.WithLabelValues(form, "succeeded").Inc()
	SubmissionDuration.WithLabelValues(form).Observe(duration.Seconds())
}

// SubmissionFailed records a submission the backend rejected.
func SubmissionFailed(form string, duration time.Duration) {
	SubmissionsTotal.WithLabelValues(form, "failed").Inc()
	SubmissionDuration.WithLabelValues(form).Observe(duration.Seconds())
}

// SubmissionCancelled records a submission abandoned by teardown.
func SubmissionCancelled(form string) {
	SubmissionsTotal.WithLabelValues(form, "cancelled").Inc()
}
