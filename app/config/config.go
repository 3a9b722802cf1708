// Package config loads the optional YAML configuration file. Values of the file are used for options
// not set on the command line; the JSON schema of the file is generated from File.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/leontine/leontine/app/settings"
)

// File is the structure of the configuration file
type File struct {
	Endpoint string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" jsonschema:"description=transcription service url,format=uri"`
	Status   StatusConfig  `yaml:"status,omitempty" json:"status,omitempty" jsonschema:"description=service status polling"`
	Job      JobConfig     `yaml:"job,omitempty" json:"job,omitempty" jsonschema:"description=job polling"`
	Gateway  GatewayConfig `yaml:"gateway,omitempty" json:"gateway,omitempty" jsonschema:"description=service api details"`
	Store    StoreConfig   `yaml:"store,omitempty" json:"store,omitempty" jsonschema:"description=settings storage"`
	Web      WebConfig     `yaml:"web,omitempty" json:"web,omitempty" jsonschema:"description=local api server"`
	Notify   NotifyConfig  `yaml:"notify,omitempty" json:"notify,omitempty" jsonschema:"description=job notifications"`
}

// StatusConfig defines status poller settings
type StatusConfig struct {
	Interval Duration `yaml:"interval,omitempty" json:"interval,omitempty" jsonschema:"description=time between status checks; duration like 30s"`
	Timeout  Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=status check timeout; duration like 10s"`
}

// JobConfig defines job poller settings
type JobConfig struct {
	Interval      Duration `yaml:"interval,omitempty" json:"interval,omitempty" jsonschema:"description=time between job polls; duration like 5s"`
	Timeout       Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=job poll timeout; duration like 10s"`
	UploadTimeout Duration `yaml:"upload_timeout,omitempty" json:"upload_timeout,omitempty" jsonschema:"description=audio upload timeout; duration like 5m"`
	Retries       *int     `yaml:"retries,omitempty" json:"retries,omitempty" jsonschema:"description=consecutive poll failures before the job failed,minimum=0,maximum=100"`
}

// GatewayConfig defines JSONPath expressions for queue counts in the status response
type GatewayConfig struct {
	QueuedPath     string `yaml:"queued_path,omitempty" json:"queued_path,omitempty" jsonschema:"description=JSONPath of queued jobs count"`
	ProcessingPath string `yaml:"processing_path,omitempty" json:"processing_path,omitempty" jsonschema:"description=JSONPath of processing jobs count"`
}

// StoreConfig defines settings storage
type StoreConfig struct {
	Path   string `yaml:"path,omitempty" json:"path,omitempty" jsonschema:"description=sqlite database file"`
	Memory *bool  `yaml:"memory,omitempty" json:"memory,omitempty" jsonschema:"description=keep settings in memory only"`
}

// WebConfig defines local api server
type WebConfig struct {
	Listen       string `yaml:"listen,omitempty" json:"listen,omitempty" jsonschema:"description=listen address like 127.0.0.1:8080"`
	PasswordHash string `yaml:"password_hash,omitempty" json:"password_hash,omitempty" jsonschema:"description=bcrypt hash of basic auth password"`
}

// NotifyConfig defines job notifications
type NotifyConfig struct {
	OnError      *bool    `yaml:"on_error,omitempty" json:"on_error,omitempty" jsonschema:"description=notify about failed jobs"`
	OnCompletion *bool    `yaml:"on_completion,omitempty" json:"on_completion,omitempty" jsonschema:"description=notify about completed jobs"`
	Webhooks     []string `yaml:"webhooks,omitempty" json:"webhooks,omitempty" jsonschema:"description=webhook urls"`
	EmailTo      []string `yaml:"email_to,omitempty" json:"email_to,omitempty" jsonschema:"description=email recipients"`
	EmailFrom    string   `yaml:"email_from,omitempty" json:"email_from,omitempty" jsonschema:"description=email sender"`
	SMTPHost     string   `yaml:"smtp_host,omitempty" json:"smtp_host,omitempty" jsonschema:"description=SMTP host"`
	SMTPPort     int      `yaml:"smtp_port,omitempty" json:"smtp_port,omitempty" jsonschema:"description=SMTP port,minimum=1,maximum=65535"`
	SMTPUsername string   `yaml:"smtp_username,omitempty" json:"smtp_username,omitempty" jsonschema:"description=SMTP user name"`
	SMTPPassword string   `yaml:"smtp_password,omitempty" json:"smtp_password,omitempty" jsonschema:"description=SMTP password"`
	SMTPTLS      *bool    `yaml:"smtp_tls,omitempty" json:"smtp_tls,omitempty" jsonschema:"description=enable SMTP TLS"`
}

// Duration is time.Duration written as a string like "30s" or "1m30s"
type Duration time.Duration

// UnmarshalYAML parses duration string
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration should be a string: %w", node.Line, err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes duration as a string
func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// JSONSchema describes duration as a string, field descriptions replace the type one
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|ms|s|m|h))+$`,
		Description: "duration like 500ms, 30s or 1m30s",
	}
}

// Std returns time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and validates the configuration file. Unknown fields rejected.
func Load(fname string) (*File, error) {
	data, err := os.ReadFile(fname) // nolint gosec
	if err != nil {
		return nil, fmt.Errorf("can't read config %s: %w", fname, err)
	}
	res, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("can't load config %s: %w", fname, err)
	}
	return res, nil
}

// Parse decodes and validates configuration
func Parse(r io.Reader) (*File, error) {
	res := &File{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(res); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't parse yaml: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return res, nil
}

// Validate checks values which can't be expressed by yaml types
func (f *File) Validate() error {
	if f.Endpoint != "" {
		endpoint, err := settings.Normalize(f.Endpoint)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		f.Endpoint = endpoint
	}

	durations := []struct {
		name string
		val  Duration
	}{
		{"status.interval", f.Status.Interval}, {"status.timeout", f.Status.Timeout},
		{"job.interval", f.Job.Interval}, {"job.timeout", f.Job.Timeout}, {"job.upload_timeout", f.Job.UploadTimeout},
	}
	for _, d := range durations {
		if d.val < 0 {
			return fmt.Errorf("%s must not be negative", d.name)
		}
		if d.val > 0 && d.val.Std() < 10*time.Millisecond {
			return fmt.Errorf("%s must be at least 10ms", d.name)
		}
	}

	if f.Job.Retries != nil && (*f.Job.Retries < 0 || *f.Job.Retries > 100) {
		return fmt.Errorf("job.retries must be between 0 and 100")
	}
	for _, p := range []string{f.Gateway.QueuedPath, f.Gateway.ProcessingPath} {
		if p != "" && !strings.HasPrefix(p, "$") {
			return fmt.Errorf("gateway path %q should start with $", p)
		}
	}
	if f.Notify.SMTPPort < 0 || f.Notify.SMTPPort > 65535 {
		return fmt.Errorf("notify.smtp_port must be between 1 and 65535")
	}
	for _, wh := range f.Notify.Webhooks {
		if !strings.HasPrefix(wh, "http://") && !strings.HasPrefix(wh, "https://") {
			return fmt.Errorf("notify webhook %q should be http or https url", wh)
		}
	}
	return nil
}

// GenerateSchema generates a JSON schema for the File struct
func GenerateSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := r.Reflect(&File{})
	schema.Title = "Leontine Configuration Schema"
	schema.Description = "Schema for leontine YAML configuration file"
	return schema
}
