package registro

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"servicredit-registro/internal/common/errors"
	"servicredit-registro/internal/common/logger"
	"servicredit-registro/internal/common/metrics"
	"servicredit-registro/pkg/registry"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
)

// Outcome classifies how a submit attempt ended.
type Outcome string

const (
	OutcomeInvalid        Outcome = "invalid"
	OutcomeConsentMissing Outcome = "consent_missing"
	OutcomeSuccess        Outcome = "success"
	OutcomeRejected       Outcome = "rejected"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeTransportError Outcome = "transport_error"
)

// Result reports one submit attempt. Err is nil only on success.
type Result struct {
	Outcome      Outcome          `json:"outcome"`
	Errors       ValidationErrors `json:"errors,omitempty"`
	Notification *Notification    `json:"notification,omitempty"`
	Err          error            `json:"-"`
}

// Recorder receives submission outcomes, e.g. the OpenTelemetry meter.
type Recorder interface {
	RecordSubmission(ctx context.Context, variant, outcome string)
}

type Dependencies struct {
	Options   Options
	Registrar Registrar
	Logger    logger.Logger
	Recorder  Recorder
	Clock     func() time.Time
}

// Session is the state container of one form: field values, the last
// validation errors, the notification, the document dialog and the busy flag.
// All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	opts      Options
	validator *Validator
	registrar Registrar
	logger    logger.Logger
	recorder  Recorder
	now       func() time.Time

	data         FormData
	errors       ValidationErrors
	notification *Notification
	dialog       Dialog
	busy         bool
	inFlight     int
	validating   bool
	updatedAt    time.Time
}

// View is a read-only copy of a session for rendering.
type View struct {
	ID           string
	Variant      registry.FormVariant
	Data         FormData
	Errors       ValidationErrors
	Notification *Notification
	Dialog       Dialog
	Busy         bool
	State        State
}

// Snapshot is the persisted form of a session. The busy flag is process-local
// and never part of it.
type Snapshot struct {
	ID           string           `json:"id"`
	Variant      string           `json:"variant"`
	Data         FormData         `json:"data"`
	Errors       ValidationErrors `json:"errors,omitempty"`
	Notification *Notification    `json:"notification,omitempty"`
	Dialog       Dialog           `json:"dialog"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func NewSession(id string, deps Dependencies) (*Session, error) {
	if err := deps.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid form options: %w", err)
	}
	if deps.Registrar == nil {
		return nil, fmt.Errorf("registrar is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Session{
		id:        id,
		opts:      deps.Options,
		validator: NewValidator(deps.Options),
		registrar: deps.Registrar,
		logger:    deps.Logger.WithFields(map[string]interface{}{"sessionId": id, "variant": deps.Options.Variant.ID}),
		recorder:  deps.Recorder,
		now:       deps.Clock,
		errors:    ValidationErrors{},
		updatedAt: deps.Clock(),
	}, nil
}

// Restore rebuilds a session from a snapshot.
func Restore(snap Snapshot, deps Dependencies) (*Session, error) {
	if snap.Variant != deps.Options.Variant.ID {
		return nil, fmt.Errorf("snapshot variant %q does not match %q", snap.Variant, deps.Options.Variant.ID)
	}
	s, err := NewSession(snap.ID, deps)
	if err != nil {
		return nil, err
	}
	s.data = snap.Data
	if snap.Errors != nil {
		s.errors = snap.Errors
	}
	s.notification = snap.Notification
	s.dialog = snap.Dialog
	s.updatedAt = snap.UpdatedAt
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// Set changes one text field. Validation errors are left as they are until
// the next submit.
func (s *Session) Set(field, value string) error {
	if !s.opts.HasField(field) || IsFlag(field) {
		return errors.NewUnknownFieldError(field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.data.Set(field, value); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) SetFlag(field string, checked bool) error {
	if !s.opts.HasField(field) || !IsFlag(field) {
		return errors.NewUnknownFieldError(field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.data.SetFlag(field, checked); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Bind applies a posted HTML form. Text fields absent from values keep their
// value; an absent checkbox is unchecked.
func (s *Session) Bind(values url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, field := range s.opts.Variant.Fields {
		if IsFlag(field) {
			_ = s.data.SetFlag(field, values.Has(field))
			continue
		}
		if values.Has(field) {
			_ = s.data.Set(field, values.Get(field))
		}
	}
	s.touch()
}

// Submit validates the form and, when it passes, sends it to the registrar.
// The returned error is set only when the attempt could not start because
// another submission is in flight; every other outcome is in Result.
//
// The registrar call ignores cancellation of ctx: once sent, a submission
// runs to completion or to the HTTP client timeout.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, errors.NewSubmissionInFlightError(s.id)
	}

	s.validating = true
	errs := s.validator.Validate(s.data)
	s.errors = errs
	s.validating = false

	if !errs.Valid() {
		s.touch()
		s.mu.Unlock()
		for _, f := range errs.Fields() {
			metrics.ValidationFailures.WithLabelValues(s.opts.Variant.ID, f).Inc()
		}
		s.logger.Debug("Form validation failed", map[string]interface{}{"fields": errs.Fields()})
		return s.finish(ctx, &Result{
			Outcome: OutcomeInvalid,
			Errors:  errs,
			Err:     errors.NewValidationFailedError(errs.Fields()),
		}), nil
	}

	if !s.data.Autorizacion {
		n := newNotification(MsgConsentRequired, SeverityError, s.now(), s.opts.NotificationTTL)
		s.notification = n
		s.touch()
		s.mu.Unlock()
		return s.finish(ctx, &Result{
			Outcome:      OutcomeConsentMissing,
			Errors:       errs,
			Notification: n,
			Err:          errors.NewConsentRequiredError(MsgConsentRequired),
		}), nil
	}

	payload := BuildPayload(s.data, s.opts)
	afiliacion := s.data.Afiliacion
	if s.opts.Variant.TrackBusy {
		s.busy = true
	}
	s.inFlight++
	s.mu.Unlock()

	defer s.endSubmit()

	variant := s.opts.Variant.ID
	metrics.SubmissionsInFlight.WithLabelValues(variant).Inc()
	defer metrics.SubmissionsInFlight.WithLabelValues(variant).Dec()

	s.logger.Info("Submitting registration", map[string]interface{}{
		"dni":        payload.DNI,
		"empresa":    payload.Empresa,
		"afiliacion": afiliacion,
	})

	start := time.Now()
	resp, err := s.registrar.Register(context.WithoutCancel(ctx), payload)
	metrics.SubmissionDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())

	s.mu.Lock()
	result := s.applyResponse(resp, err, afiliacion)
	s.mu.Unlock()

	return s.finish(ctx, result), nil
}

// applyResponse maps the registrar answer onto the session. Caller holds mu.
func (s *Session) applyResponse(resp *RegistrarResponse, err error, afiliacion bool) *Result {
	now := s.now()
	ttl := s.opts.NotificationTTL
	defer s.touch()

	if err != nil {
		outcome, text := OutcomeTransportError, MsgConnectionFailed
		if errors.IsCode(err, errors.ErrCodeRegistrarHTTPError) {
			outcome, text = OutcomeHTTPError, MsgRegistrationError
		}
		s.notification = newNotification(text, SeverityError, now, ttl)
		s.logger.Warn("Registration failed", map[string]interface{}{"outcome": string(outcome), "error": err})
		return &Result{Outcome: outcome, Notification: s.notification, Err: err}
	}

	if !resp.Succeeded() {
		text := resp.UserMessage(MsgRegistrationError)
		s.notification = newNotification(text, SeverityError, now, ttl)
		s.logger.Warn("Registration rejected", map[string]interface{}{"message": resp.Message})
		return &Result{
			Outcome:      OutcomeRejected,
			Notification: s.notification,
			Err:          errors.NewRegistrarRejectedError(resp.Code, text),
		}
	}

	s.notification = newNotification(s.opts.SuccessMessage(afiliacion), SeveritySuccess, now, ttl)
	if s.opts.Variant.ResetOnSuccess {
		s.data = FormData{}
		s.errors = ValidationErrors{}
	}
	s.logger.Info("Registration succeeded", nil)
	return &Result{Outcome: OutcomeSuccess, Notification: s.notification}
}

func (s *Session) endSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.inFlight--
}

func (s *Session) finish(ctx context.Context, r *Result) *Result {
	metrics.SubmissionsTotal.WithLabelValues(s.opts.Variant.ID, string(r.Outcome)).Inc()
	if s.recorder != nil {
		s.recorder.RecordSubmission(ctx, s.opts.Variant.ID, string(r.Outcome))
	}
	return r
}

// OpenDocument shows the document with the given id in the dialog.
func (s *Session) OpenDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dialog.open(s.opts.Variant.Documents, id); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) CloseDocument() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog.close()
	s.touch()
}

func (s *Session) DismissNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notification != nil {
		s.notification.Dismissed = true
	}
	s.touch()
}

// Busy reports whether the submit control is disabled.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	switch {
	case s.validating:
		return StateValidating
	case s.inFlight > 0:
		return StateSubmitting
	default:
		return StateIdle
	}
}

// View returns a copy for rendering; the notification is included only while visible.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:      s.id,
		Variant: s.opts.Variant,
		Data:    s.data,
		Errors:  copyErrors(s.errors),
		Dialog:  s.dialog,
		Busy:    s.busy,
		State:   s.state(),
	}
	if s.notification.Visible(s.now()) {
		n := *s.notification
		v.Notification = &n
	}
	return v
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		Variant:   s.opts.Variant.ID,
		Data:      s.data,
		Errors:    copyErrors(s.errors),
		Dialog:    s.dialog,
		UpdatedAt: s.updatedAt,
	}
	if s.notification != nil {
		n := *s.notification
		snap.Notification = &n
	}
	return snap
}

// UpdatedAt is the time of the last change, used for idle expiry.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touch() {
	s.updatedAt = s.now()
}

func copyErrors(in ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
