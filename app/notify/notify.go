// Package notify sends notifications about finished transcription jobs by email and webhooks
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"

	"github.com/leontine/leontine/app/enums"
	"github.com/leontine/leontine/app/state"
)

// Service delivers job messages to all configured destinations
type Service struct {
	destinations []notify.Notifier
	webhooks     []string
	fromEmail    string
	toEmail      []string
	host         string
	onError      bool
	onCompletion bool
	timeout      time.Duration
	msgTmpl      *template.Template
}

// Params defines when and how to notify
type Params struct {
	EnabledError      bool
	EnabledCompletion bool
	HostName          string
	Timeout           time.Duration // for a single notification round
	MessageTemplate   string        // optional file with custom message template
}

// SendersParams defines destinations
type SendersParams struct {
	SMTPParams     notify.SMTPParams
	FromEmail      string
	ToEmails       []string
	WebhookURLs    []string
	WebhookHeaders []string // "Header:value" pairs
}

const defaultTemplate = `Transcription of {{if .Filename}}{{.Filename}}{{else}}job {{.ID}}{{end}} {{.Verb}} on {{.Host}} at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}
Job: {{.ID}}
State: {{.State}}
{{- if .Error}}
Error: {{.Error}}{{end}}
{{- if .Resubmit}}
The service lost the job, submit the file again.{{end}}
{{- if .Transcript}}

{{.Transcript}}{{end}}
`

const maxTranscriptLen = 4000

// NewService makes notification service. Returns nil if there is no destination.
func NewService(p Params, sp SendersParams) *Service {
	res := &Service{
		fromEmail:    sp.FromEmail,
		toEmail:      sp.ToEmails,
		webhooks:     sp.WebhookURLs,
		host:         p.HostName,
		onError:      p.EnabledError,
		onCompletion: p.EnabledCompletion,
		timeout:      p.Timeout,
	}
	if res.timeout <= 0 {
		res.timeout = 30 * time.Second
	}
	if res.host == "" {
		res.host = hostName()
	}
	if res.fromEmail == "" {
		res.fromEmail = "leontine@" + res.host
	}

	if len(sp.ToEmails) > 0 {
		res.destinations = append(res.destinations, notify.NewEmail(sp.SMTPParams))
	}
	if len(sp.WebhookURLs) > 0 {
		res.destinations = append(res.destinations, notify.NewWebhook(notify.WebhookParams{
			Timeout: res.timeout,
			Headers: sp.WebhookHeaders,
		}))
	}
	if len(res.destinations) == 0 {
		return nil
	}

	res.msgTmpl = template.Must(template.New("msg").Parse(defaultTemplate))
	if p.MessageTemplate != "" {
		tmpl, err := loadTemplate(p.MessageTemplate)
		if err != nil {
			log.Printf("[WARN] can't load message template %s, using default: %v", p.MessageTemplate, err)
		} else {
			res.msgTmpl = tmpl
		}
	}

	log.Printf("[INFO] notifications enabled, emails:%v, webhooks:%d, on-error:%v, on-completion:%v",
		sp.ToEmails, len(sp.WebhookURLs), p.EnabledError, p.EnabledCompletion)
	return res
}

// JobFinished notifies about a job in terminal state, matches job.FinishHandler
func (s *Service) JobFinished(ctx context.Context, j state.Job) {
	if s == nil {
		return
	}
	failed := j.State != enums.JobStateCompleted
	if (failed && !s.onError) || (!failed && !s.onCompletion) {
		return
	}

	msg, err := s.MakeMessage(j)
	if err != nil {
		log.Printf("[WARN] can't make notification for job %s, %v", j.ID, err)
		return
	}
	subj := "Transcription completed"
	if failed {
		subj = "Transcription failed"
	}
	if j.Filename != "" {
		subj += ": " + j.Filename
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.Send(ctx, subj, msg); err != nil {
		log.Printf("[WARN] can't send notification for job %s, %v", j.ID, err)
		return
	}
	log.Printf("[DEBUG] notification for job %s sent", j.ID)
}

// MakeMessage renders the message text for the job
func (s *Service) MakeMessage(j state.Job) (string, error) {
	verb := "completed"
	switch j.State {
	case enums.JobStateFailed:
		verb = "failed"
	case enums.JobStateNotfound:
		verb = "was lost"
	}
	transcript := j.Transcript
	if len(transcript) > maxTranscriptLen {
		n := maxTranscriptLen
		for n > 0 && !utf8.RuneStart(transcript[n]) {
			n--
		}
		transcript = transcript[:n] + "\n..."
	}

	data := struct {
		ID         string
		Filename   string
		State      string
		Verb       string
		Error      string
		Transcript string
		Resubmit   bool
		Host       string
		TS         time.Time
	}{
		ID:         j.ID,
		Filename:   j.Filename,
		State:      j.State.String(),
		Verb:       verb,
		Error:      j.ErrorMessage,
		Transcript: transcript,
		Resubmit:   j.ResubmitRequired,
		Host:       s.host,
		TS:         j.UpdatedAt,
	}
	if data.TS.IsZero() {
		data.TS = time.Now()
	}

	buf := bytes.Buffer{}
	if err := s.msgTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

// Send message to emails and webhooks
func (s *Service) Send(ctx context.Context, subj, text string) error {
	var errs []error
	if len(s.toEmail) > 0 {
		dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s", strings.Join(s.toEmail, ","), s.fromEmail,
			url.QueryEscape(subj))
		if err := notify.Send(ctx, s.destinations, dest, text); err != nil {
			errs = append(errs, err)
		}
	}
	for _, wh := range s.webhooks {
		if err := notify.Send(ctx, s.destinations, wh, text); err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", wh, err))
		}
	}
	return errors.Join(errs...)
}

// IsOnError status enabling on-error notification
func (s *Service) IsOnError() bool { return s.onError }

// IsOnCompletion status enabling on-completion notification
func (s *Service) IsOnCompletion() bool { return s.onCompletion }

func loadTemplate(fname string) (*template.Template, error) {
	data, err := os.ReadFile(fname) // nolint gosec
	if err != nil {
		return nil, fmt.Errorf("can't read template: %w", err)
	}
	tmpl, err := template.New("msg").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("can't parse template: %w", err)
	}
	return tmpl, nil
}

func hostName() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
