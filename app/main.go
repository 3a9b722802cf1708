package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	gonotify "github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-pkgz/syncs"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/leontine/leontine/app/config"
	"github.com/leontine/leontine/app/enums"
	"github.com/leontine/leontine/app/gateway"
	"github.com/leontine/leontine/app/job"
	"github.com/leontine/leontine/app/notify"
	"github.com/leontine/leontine/app/persistence"
	"github.com/leontine/leontine/app/resumer"
	"github.com/leontine/leontine/app/settings"
	"github.com/leontine/leontine/app/state"
	"github.com/leontine/leontine/app/status"
	"github.com/leontine/leontine/app/web"
)

var opts struct {
	Config   string `long:"config" env:"LEONTINE_CONFIG" description:"yaml configuration file"`
	Schema   bool   `long:"schema" description:"print json schema of the configuration file and exit"`
	Endpoint string `short:"e" long:"endpoint" env:"LEONTINE_ENDPOINT" default:"https://llm.iut-rodez.fr/leontine/api" description:"service url used when none is saved"`
	SetURL   string `long:"set-url" description:"set and save the service url"`
	Submit   string `short:"s" long:"submit" description:"audio file to submit on startup"`
	Result   string `short:"o" long:"result" description:"file to write the transcript of the completed job"`
	NoResume bool   `long:"no-resume" env:"LEONTINE_NO_RESUME" description:"don't resume the pending job on startup"`
	Dbg      bool   `long:"dbg" env:"LEONTINE_DEBUG" description:"debug mode"`

	Status struct {
		Interval time.Duration `long:"interval" env:"INTERVAL" default:"30s" description:"time between status checks"`
		Timeout  time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"status check timeout"`
	} `group:"status" namespace:"status" env-namespace:"LEONTINE_STATUS"`

	Job struct {
		Interval      time.Duration `long:"interval" env:"INTERVAL" default:"5s" description:"time between job polls"`
		Timeout       time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"job poll timeout"`
		UploadTimeout time.Duration `long:"upload-timeout" env:"UPLOAD_TIMEOUT" default:"5m" description:"audio upload timeout"`
		Retries       int           `long:"retries" env:"RETRIES" default:"3" description:"consecutive poll failures before the job failed"`
	} `group:"job" namespace:"job" env-namespace:"LEONTINE_JOB"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"how many times to repeat failed download"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"500ms" description:"initial duration"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"2" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"LEONTINE_REPEATER"`

	Gateway struct {
		QueuedPath     string `long:"queued-path" env:"QUEUED_PATH" default:"$.queue_state.queued_jobs" description:"JSONPath of queued jobs count"`
		ProcessingPath string `long:"processing-path" env:"PROCESSING_PATH" default:"$.queue_state.processing_jobs" description:"JSONPath of processing jobs count"`
	} `group:"gateway" namespace:"gateway" env-namespace:"LEONTINE_GATEWAY"`

	Store struct {
		Path   string `long:"path" env:"PATH" default:"leontine.db" description:"sqlite database file"`
		Memory bool   `long:"memory" env:"MEMORY" description:"keep settings in memory only"`
	} `group:"store" namespace:"store" env-namespace:"LEONTINE_STORE"`

	Web struct {
		Listen       string  `long:"listen" env:"LISTEN" description:"local api listen address, disabled if empty"`
		PasswordHash string  `long:"password-hash" env:"PASSWORD_HASH" description:"bcrypt hash of basic auth password"`
		MaxUpload    int64   `long:"max-upload" env:"MAX_UPLOAD" default:"536870912" description:"max audio size in bytes"`
		UploadRate   float64 `long:"upload-rate" env:"UPLOAD_RATE" default:"1" description:"max uploads per second per client"`
	} `group:"web" namespace:"web" env-namespace:"LEONTINE_WEB"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"leontine.log" description:"file name to log to"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"maximum size in megabytes of the log file before it gets rotated"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"maximum number of days to retain old log files"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"maximum number of old log files to retain"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"determines if the rotated log files should be compressed using gzip"`
	} `group:"log" namespace:"log" env-namespace:"LEONTINE_LOG"`

	Notify struct {
		EnabledError      bool          `long:"enabled-error" env:"ENABLED_ERROR" description:"enable notifications on failed jobs"`
		EnabledCompletion bool          `long:"enabled-complete" env:"ENABLED_COMPLETE" description:"enable notifications on completed jobs"`
		Webhooks          []string      `long:"webhook" env:"WEBHOOK" env-delim:"," description:"webhook url(s)"`
		WebhookHeaders    []string      `long:"webhook-header" env:"WEBHOOK_HEADER" env-delim:"," description:"webhook header(s), Header:value"`
		SMTPHost          string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort          int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername      string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword      string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS           bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut       time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail         string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails          []string      `long:"to" env:"TO" env-delim:"," description:"SMTP to email(s)"`
		HostName          string        `long:"host" env:"HOSTNAME" description:"host name running leontine"`
		Template          string        `long:"template" env:"TEMPLATE" description:"message template file"`
		Timeout           time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"notification timeout"`
	} `group:"notify" namespace:"notify" env-namespace:"LEONTINE_NOTIFY"`
}

var revision = "unknown"

func main() {
	fmt.Printf("leontine %s\n", revision)

	p := flags.NewParser(&opts, flags.Default)
	if _, err := p.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.Schema {
		if err := printSchema(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "can't make schema: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if opts.Config != "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		applyConfig(p, cfg)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// run wires all components and blocks until ctx is canceled
func run(ctx context.Context) error {
	kv, closeStore := makeStore()
	defer closeStore()

	st, wr := state.New()

	gw, err := gateway.New(gateway.Params{
		Timeout:        opts.Job.Timeout,
		UploadTimeout:  opts.Job.UploadTimeout,
		QueuedPath:     opts.Gateway.QueuedPath,
		ProcessingPath: opts.Gateway.ProcessingPath,
	})
	if err != nil {
		return fmt.Errorf("can't make gateway: %w", err)
	}

	statusPoller := status.New(status.Params{
		Checker:  gw,
		State:    st,
		Writer:   wr.Health,
		Interval: opts.Status.Interval,
		Timeout:  opts.Status.Timeout,
	})

	mgr := settings.New(settings.Params{
		Store:      kv,
		State:      st,
		Writer:     wr.Endpoint,
		Notifier:   statusPoller,
		DefaultURL: opts.Endpoint,
	})
	mgr.Load()
	if opts.SetURL != "" {
		if err := mgr.SetEndpointURL(opts.SetURL); err != nil {
			return fmt.Errorf("can't set service url: %w", err)
		}
	}
	log.Printf("[INFO] service url %s", mgr.EndpointURL())

	notifier := makeNotifier()
	var jobPoller *job.Poller
	onFinish := func(ctx context.Context, j state.Job) {
		notifier.JobFinished(ctx, j)
		if opts.Result != "" && j.State == enums.JobStateCompleted {
			if err := saveResult(ctx, jobPoller, opts.Result); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}
	}

	jobPoller = job.New(job.Params{
		Gateway: gw,
		State:   st,
		Writer:  wr.Job,
		Tracker: resumer.New(kv, !opts.NoResume),
		Repeater: repeater.New(&strategy.Backoff{Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
			Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter}),
		OnFinish:   onFinish,
		Interval:   opts.Job.Interval,
		Timeout:    opts.Job.Timeout,
		MaxRetries: opts.Job.Retries,
	})
	defer jobPoller.Cancel() // keeps the persisted id, the job resumed on next start

	jobPoller.Resume(ctx)

	grp := syncs.NewErrSizedGroup(4, syncs.Context(ctx))
	grp.Go(func() error {
		if err := statusPoller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("status poller failed: %w", err)
		}
		return nil
	})

	if opts.Web.Listen != "" {
		srv, err := web.New(web.Config{
			State:         st,
			Settings:      mgr,
			Status:        statusPoller,
			Jobs:          jobPoller,
			Version:       revision,
			PasswordHash:  opts.Web.PasswordHash,
			MaxUploadSize: opts.Web.MaxUpload,
			UploadRate:    opts.Web.UploadRate,
		})
		if err != nil {
			return fmt.Errorf("can't make web server: %w", err)
		}
		grp.Go(func() error { return srv.Run(ctx, opts.Web.Listen) })
	}

	if opts.Submit != "" {
		grp.Go(func() error { return submitFile(ctx, jobPoller, st, opts.Submit) })
	}

	return grp.Wait()
}

// submitFile submits audio file unless a job is already pending
func submitFile(ctx context.Context, jp *job.Poller, st *state.State, fname string) error {
	if j, ok := st.ActiveJob(); ok && !j.State.IsTerminal() {
		log.Printf("[INFO] job %s is pending, %s not submitted", j.ID, fname)
		return nil
	}
	fh, err := os.Open(fname) // nolint gosec
	if err != nil {
		return fmt.Errorf("can't open audio file: %w", err)
	}
	defer fh.Close() // nolint

	id, err := jp.Submit(ctx, fh, filepath.Base(fname))
	if err != nil {
		return err
	}
	log.Printf("[INFO] %s submitted as job %s", fname, id)
	return nil
}

// saveResult writes the transcript of the completed job to the file
func saveResult(ctx context.Context, jp *job.Poller, fname string) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Job.Timeout)
	defer cancel()
	data, err := jp.Result(ctx)
	if err != nil {
		return fmt.Errorf("can't get result: %w", err)
	}
	if err := os.WriteFile(fname, data, 0o600); err != nil {
		return fmt.Errorf("can't write result to %s: %w", fname, err)
	}
	log.Printf("[INFO] transcript saved to %s", fname)
	return nil
}

// makeStore opens sqlite store, falls back to memory if the database can't be opened
func makeStore() (kv persistence.KV, closeFn func()) {
	if opts.Store.Memory {
		log.Printf("[INFO] settings kept in memory only")
		return persistence.NewDegrading(persistence.NewMemoryStore()), func() {}
	}
	store, err := persistence.NewSQLiteStore(opts.Store.Path)
	if err != nil {
		log.Printf("[WARN] storage unavailable, settings kept in memory only: %v", err)
		return persistence.NewDegrading(persistence.NewMemoryStore()), func() {}
	}
	return persistence.NewDegrading(store), func() {
		if err := store.Close(); err != nil {
			log.Printf("[WARN] can't close store: %v", err)
		}
	}
}

func makeNotifier() *notify.Service {
	if !opts.Notify.EnabledError && !opts.Notify.EnabledCompletion {
		return nil
	}

	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "leontine@" + makeHostName()
	}

	return notify.NewService(notify.Params{
		EnabledError:      opts.Notify.EnabledError,
		EnabledCompletion: opts.Notify.EnabledCompletion,
		HostName:          makeHostName(),
		Timeout:           opts.Notify.Timeout,
		MessageTemplate:   opts.Notify.Template,
	}, notify.SendersParams{
		SMTPParams: gonotify.SMTPParams{
			Host:        opts.Notify.SMTPHost,
			Port:        opts.Notify.SMTPPort,
			TLS:         opts.Notify.SMTPTLS,
			Username:    opts.Notify.SMTPUsername,
			Password:    opts.Notify.SMTPPassword,
			TimeOut:     opts.Notify.SMTPTimeOut,
			ContentType: "text/plain",
		},
		FromEmail:      opts.Notify.FromEmail,
		ToEmails:       opts.Notify.ToEmails,
		WebhookURLs:    opts.Notify.Webhooks,
		WebhookHeaders: opts.Notify.WebhookHeaders,
	})
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// applyConfig sets options from the config file unless they were set on the command line or env
func applyConfig(p *flags.Parser, cfg *config.File) {
	fromFile := func(name string) bool {
		o := p.FindOptionByLongName(name)
		if o == nil || !o.IsSetDefault() {
			return false
		}
		if env := o.EnvKeyWithNamespace(); env != "" {
			if _, ok := os.LookupEnv(env); ok {
				return false
			}
		}
		return true
	}
	setStr := func(name, val string, dst *string) {
		if val != "" && fromFile(name) {
			*dst = val
		}
	}
	setDur := func(name string, val config.Duration, dst *time.Duration) {
		if val > 0 && fromFile(name) {
			*dst = val.Std()
		}
	}
	setBool := func(name string, val *bool, dst *bool) {
		if val != nil && fromFile(name) {
			*dst = *val
		}
	}
	setList := func(name string, val []string, dst *[]string) {
		if len(val) > 0 && fromFile(name) {
			*dst = val
		}
	}

	setStr("endpoint", cfg.Endpoint, &opts.Endpoint)
	setDur("status.interval", cfg.Status.Interval, &opts.Status.Interval)
	setDur("status.timeout", cfg.Status.Timeout, &opts.Status.Timeout)
	setDur("job.interval", cfg.Job.Interval, &opts.Job.Interval)
	setDur("job.timeout", cfg.Job.Timeout, &opts.Job.Timeout)
	setDur("job.upload-timeout", cfg.Job.UploadTimeout, &opts.Job.UploadTimeout)
	if cfg.Job.Retries != nil && fromFile("job.retries") {
		opts.Job.Retries = *cfg.Job.Retries
	}
	setStr("gateway.queued-path", cfg.Gateway.QueuedPath, &opts.Gateway.QueuedPath)
	setStr("gateway.processing-path", cfg.Gateway.ProcessingPath, &opts.Gateway.ProcessingPath)
	setStr("store.path", cfg.Store.Path, &opts.Store.Path)
	setBool("store.memory", cfg.Store.Memory, &opts.Store.Memory)
	setStr("web.listen", cfg.Web.Listen, &opts.Web.Listen)
	setStr("web.password-hash", cfg.Web.PasswordHash, &opts.Web.PasswordHash)
	setBool("notify.enabled-error", cfg.Notify.OnError, &opts.Notify.EnabledError)
	setBool("notify.enabled-complete", cfg.Notify.OnCompletion, &opts.Notify.EnabledCompletion)
	setList("notify.webhook", cfg.Notify.Webhooks, &opts.Notify.Webhooks)
	setList("notify.to", cfg.Notify.EmailTo, &opts.Notify.ToEmails)
	setStr("notify.from", cfg.Notify.EmailFrom, &opts.Notify.FromEmail)
	setStr("notify.smtp-host", cfg.Notify.SMTPHost, &opts.Notify.SMTPHost)
	if cfg.Notify.SMTPPort > 0 && fromFile("notify.smtp-port") {
		opts.Notify.SMTPPort = cfg.Notify.SMTPPort
	}
	setStr("notify.smtp-username", cfg.Notify.SMTPUsername, &opts.Notify.SMTPUsername)
	setStr("notify.smtp-password", cfg.Notify.SMTPPassword, &opts.Notify.SMTPPassword)
	setBool("notify.smtp-tls", cfg.Notify.SMTPTLS, &opts.Notify.SMTPTLS)
}

func printSchema(w io.Writer) error {
	data, err := json.MarshalIndent(config.GenerateSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("can't marshal schema: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func setupLogs() io.Writer {
	out := io.Writer(os.Stdout)
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxAge:     opts.Log.MaxAge,
			MaxBackups: opts.Log.MaxBackups,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	logOpts := []log.Option{log.Msec, log.LevelBraces, log.Out(out), log.Err(out)}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %s received, shutting down", strings.ToLower(sig.String()))
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
}
