// Package progress interprets the backend's progress replies.
//
// The backend has shipped several reply shapes over time. Normalize folds
// all of them into a domain.TaskSnapshot and is the only place that knows
// about the variations. It is pure: no I/O, no clock, no shared state.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

const (
	// DefaultMessage is shown while the backend has not reported any text.
	DefaultMessage = "处理中..."

	// DefaultError is reported when a failed task carries no explanation.
	DefaultError = "更新失败"

	// estimateCeiling caps the attempt-based estimate so a task never looks
	// finished before the backend says so.
	estimateCeiling = 95
)

var (
	completedStatuses = map[string]bool{
		"completed": true,
		"success":   true,
		"done":      true,
		"finish":    true,
		"finished":  true,
	}
	failedStatuses = map[string]bool{
		"failed": true,
		"error":  true,
	}
	successMsgs = map[string]bool{
		"success": true,
		"操作成功":    true,
		"更新成功":    true,
	}

	completedMarkers = []string{"完成", "成功"}
	failedMarkers    = []string{"失败", "错误"}

	percentInText = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	leadingNumber = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)
)

// Response is one decoded progress reply. Data is nil when the reply had no
// object payload.
type Response struct {
	Code   int
	Msg    string
	Status string
	Data   map[string]any
}

// Normalize converts a progress reply into a snapshot. attempt is the
// 1-based poll count and maxAttempts the poller's limit; together they drive
// the fallback percentage estimate.
//
// Completion wins over failure when a reply matches both.
func Normalize(resp Response, attempt, maxAttempts int) domain.TaskSnapshot {
	msg := Message(resp)
	snap := domain.TaskSnapshot{
		Phase:      domain.PhaseRunning,
		Message:    msg,
		Percentage: Percentage(resp, msg, attempt, maxAttempts),
	}

	status := strings.ToLower(text(resp.Data["status"]))
	if status == "" {
		status = strings.ToLower(resp.Status)
	}

	switch {
	case isCompleted(resp, status, msg):
		snap.Phase = domain.PhaseCompleted
	case isFailed(resp, status, msg):
		snap.Phase = domain.PhaseFailed
		snap.Err = ErrorMessage(resp)
	}
	return snap
}

// Message picks the human-readable progress text:
// data.progress, then data.message, then the envelope msg.
func Message(resp Response) string {
	for _, candidate := range []string{
		text(resp.Data["progress"]),
		text(resp.Data["message"]),
		resp.Msg,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return DefaultMessage
}

// ErrorMessage picks the failure explanation:
// data.error, then data.message, then the envelope msg.
func ErrorMessage(resp Response) string {
	for _, candidate := range []string{
		text(resp.Data["error"]),
		text(resp.Data["message"]),
		resp.Msg,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return DefaultError
}

// Percentage resolves the completion percentage, always within [0, 100].
// An explicit data.percentage or data.percent wins even when malformed
// (malformed values read as 0); otherwise a "NN%" in the message is used;
// otherwise the value is estimated from the attempt count.
func Percentage(resp Response, msg string, attempt, maxAttempts int) float64 {
	for _, key := range []string{"percentage", "percent"} {
		if v, ok := resp.Data[key]; ok && v != nil {
			return clamp(number(v))
		}
	}

	if m := percentInText.FindStringSubmatch(msg); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return clamp(f)
		}
	}

	if maxAttempts <= 0 || attempt <= 0 {
		return 0
	}
	return clamp(math.Min(estimateCeiling, float64(attempt)/float64(maxAttempts)*100))
}

func isCompleted(resp Response, status, msg string) bool {
	if completedStatuses[status] {
		return true
	}
	if containsAny(msg, completedMarkers) {
		return true
	}
	return resp.Code == 200 && successMsgs[resp.Msg]
}

func isFailed(resp Response, status, msg string) bool {
	if failedStatuses[status] {
		return true
	}
	if containsAny(msg, failedMarkers) {
		return true
	}
	return resp.Code >= 400
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// text renders a loosely typed field as a string. Absent, null, false and
// empty values render as "".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// number reads a loosely typed numeric field. Strings are parsed by their
// leading numeric prefix ("42.5%" reads as 42.5). Anything else is NaN.
func number(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		return parsed(t.Float64())
	case string:
		m := leadingNumber.FindString(t)
		if m == "" {
			return math.NaN()
		}
		return parsed(strconv.ParseFloat(strings.TrimSpace(m), 64))
	default:
		return math.NaN()
	}
}

// parsed keeps the ±Inf that ParseFloat returns for out-of-range values so
// clamp can pin them to 0 or 100.
func parsed(f float64, err error) float64 {
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return f
	}
}
