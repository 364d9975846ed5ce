package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"pcdash/internal/models"

	"go.uber.org/zap"
)

// DefaultAlertCooldown is the minimum gap between two alerts for one metric
const DefaultAlertCooldown = 10 * time.Second

// recentAlerts bounds the fired-alert history kept for displays
const recentAlerts = 50

var ErrInvalidThreshold = errors.New("invalid threshold")

// Notifier delivers an alert. Delivery is fire-and-forget.
type Notifier interface {
	Notify(title, message string)
}

// MultiNotifier fans one alert out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(title, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, message)
		}
	}
}

// LogNotifier writes alerts to the log.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(title, message string) {
	if n.Log == nil {
		return
	}
	n.Log.Info("alert", zap.String("title", title), zap.String("message", message))
}

// LatestReader answers "what is the newest sample of this metric".
type LatestReader interface {
	Latest(metric models.Metric) (float64, bool)
}

// ThresholdResult reports what happened to one free-text threshold update.
type ThresholdResult struct {
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// AlertEvaluator compares the latest samples against per-metric thresholds and
// notifies at most once per cooldown for each metric.
type AlertEvaluator struct {
	mu       sync.Mutex
	order    []models.Metric
	states   map[models.Metric]*models.AlertState
	recent   []models.Notification
	cooldown time.Duration
	notifier Notifier
	now      func() time.Time
	log      *zap.Logger
}

// NewAlertEvaluator tracks the given metrics. defaults supplies starting
// thresholds; a tracked metric without one starts disabled (+Inf).
func NewAlertEvaluator(tracked []models.Metric, defaults map[models.Metric]float64, cooldown time.Duration, notifier Notifier, log *zap.Logger) *AlertEvaluator {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	e := &AlertEvaluator{
		states:   make(map[models.Metric]*models.AlertState, len(tracked)),
		cooldown: cooldown,
		notifier: notifier,
		now:      time.Now,
		log:      log,
	}
	for _, m := range tracked {
		if _, dup := e.states[m]; dup {
			continue
		}
		threshold, ok := defaults[m]
		if !ok {
			threshold = math.Inf(1)
		}
		e.order = append(e.order, m)
		e.states[m] = &models.AlertState{Threshold: threshold}
	}
	return e
}

// SetClock replaces the time source. Tests only.
func (e *AlertEvaluator) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Cooldown returns the configured cooldown.
func (e *AlertEvaluator) Cooldown() time.Duration { return e.cooldown }

// Evaluate checks one sample and fires a notification when it breaches the
// threshold while the metric is idle. It reports whether a notification fired.
func (e *AlertEvaluator) Evaluate(metric models.Metric, value float64) bool {
	e.mu.Lock()
	state, ok := e.states[metric]
	if !ok || !(value > state.Threshold) {
		e.mu.Unlock()
		return false
	}

	now := e.now()
	if state.Phase(now, e.cooldown) == models.AlertCoolingDown {
		e.mu.Unlock()
		return false
	}
	state.LastAlert = now

	n := models.Notification{
		Metric:    metric,
		Title:     alertTitle(metric),
		Message:   alertMessage(metric, value),
		Value:     value,
		Threshold: state.Threshold,
		Timestamp: now,
	}
	e.recent = append(e.recent, n)
	if len(e.recent) > recentAlerts {
		e.recent = e.recent[1:]
	}
	e.mu.Unlock()

	e.notifier.Notify(n.Title, n.Message)
	return true
}

// Check evaluates the latest sample of every tracked metric. Metrics with no
// sample yet are skipped.
func (e *AlertEvaluator) Check(reader LatestReader) int {
	fired := 0
	for _, metric := range e.order {
		value, ok := reader.Latest(metric)
		if !ok {
			continue
		}
		if e.Evaluate(metric, value) {
			fired++
		}
	}
	return fired
}

// SetThreshold applies free-text user input. Blank input changes nothing;
// anything that is not a number is rejected and the old threshold stays.
func (e *AlertEvaluator) SetThreshold(metric models.Metric, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) {
		return false, fmt.Errorf("%w: %q", ErrInvalidThreshold, text)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.states[metric]
	if !ok {
		return false, fmt.Errorf("%w: alerts not tracked for %s", models.ErrUnknownMetric, metric)
	}
	state.Threshold = v
	state.ThresholdSet = true
	e.log.Info("threshold set", zap.Stringer("metric", metric), zap.Float64("threshold", v))
	return true, nil
}

// SetThresholds applies a batch of free-text inputs keyed by metric name.
// Each entry is handled on its own; a bad one does not block the others.
func (e *AlertEvaluator) SetThresholds(inputs map[string]string) map[string]ThresholdResult {
	results := make(map[string]ThresholdResult, len(inputs))
	for name, text := range inputs {
		metric, err := models.ParseMetric(name)
		if err != nil {
			results[name] = ThresholdResult{Error: err.Error()}
			continue
		}
		applied, err := e.SetThreshold(metric, text)
		res := ThresholdResult{Applied: applied}
		if err != nil {
			res.Error = err.Error()
		}
		results[name] = res
	}
	return results
}

// ApplyDefaults updates thresholds the user has not set explicitly, e.g. after
// a config reload.
func (e *AlertEvaluator) ApplyDefaults(defaults map[models.Metric]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for metric, state := range e.states {
		if state.ThresholdSet {
			continue
		}
		if v, ok := defaults[metric]; ok {
			state.Threshold = v
		} else {
			state.Threshold = math.Inf(1)
		}
	}
}

// State returns a copy of one metric's alert record.
func (e *AlertEvaluator) State(metric models.Metric) (models.AlertState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.states[metric]
	if !ok {
		return models.AlertState{}, false
	}
	return *s, true
}

// Statuses describes every tracked metric for display.
func (e *AlertEvaluator) Statuses() []models.AlertStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	out := make([]models.AlertStatus, 0, len(e.order))
	for _, metric := range e.order {
		s := e.states[metric]
		st := models.AlertStatus{
			Metric:       metric,
			ThresholdSet: s.ThresholdSet,
			Phase:        s.Phase(now, e.cooldown),
			Text:         statusText(metric, *s),
		}
		if !math.IsInf(s.Threshold, 0) {
			th := s.Threshold
			st.Threshold = &th
		}
		if !s.LastAlert.IsZero() {
			last := s.LastAlert
			st.LastAlert = &last
		}
		out = append(out, st)
	}
	return out
}

// Recent returns the most recent notifications, oldest first.
func (e *AlertEvaluator) Recent() []models.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Notification, len(e.recent))
	copy(out, e.recent)
	return out
}

func alertTitle(metric models.Metric) string {
	return metric.Title() + " Alert"
}

func alertMessage(metric models.Metric, value float64) string {
	if metric.IsPercent() {
		return fmt.Sprintf("%s usage is at %.1f%%, exceeding the threshold!", metric.Title(), value)
	}
	return fmt.Sprintf("%s rate is at %.2f Mbps, exceeding the threshold!", metric.Title(), value)
}

func statusText(metric models.Metric, s models.AlertState) string {
	if !s.ThresholdSet {
		return fmt.Sprintf("No %s threshold set.", metric.Title())
	}
	v := strconv.FormatFloat(s.Threshold, 'f', -1, 64)
	if metric.IsPercent() {
		return fmt.Sprintf("%s Alert threshold set to %s%%.", metric.Title(), v)
	}
	return fmt.Sprintf("%s Alert threshold set to %s Mbps.", metric.Title(), v)
}
