package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/blob"
	"github.com/sonnes/lekhak/blob/drive"
	"github.com/sonnes/lekhak/blob/gcs"
	"github.com/sonnes/lekhak/blob/local"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/events"
	"github.com/sonnes/lekhak/history"
	"github.com/sonnes/lekhak/layout"
	"github.com/sonnes/lekhak/provider"
	"github.com/sonnes/lekhak/provider/gemini"
	"github.com/sonnes/lekhak/provider/googletts"
	"github.com/sonnes/lekhak/redact"
	"github.com/sonnes/lekhak/render"
	htmlrender "github.com/sonnes/lekhak/render/html"
	jsonrender "github.com/sonnes/lekhak/render/json"
	"github.com/sonnes/lekhak/render/pdf"
	"github.com/sonnes/lekhak/render/terminal"
	"github.com/sonnes/lekhak/service"
	"github.com/sonnes/lekhak/store"
	"github.com/sonnes/lekhak/transcript"
	"google.golang.org/api/option"
)

// app holds the components built from a config. Components that talk to
// external services are only built by the commands that need them.
type app struct {
	cfg    config
	logger *log.Logger

	encoder   *pdf.Encoder
	composer  *layout.Composer
	store     *store.Store
	appender  *transcript.Appender
	redactor  *redact.Redactor
	renderers map[string]func() render.Renderer

	closers []io.Closer
}

func newApp(cfg config) (*app, error) {
	logger := log.Default()

	l := layout.Default()
	if cfg.LayoutFile != "" {
		var err error
		if l, err = layout.LoadFile(cfg.LayoutFile); err != nil {
			return nil, err
		}
	}

	var logo *core.Image
	if cfg.LogoPath != "" {
		img, err := layout.LoadImage(cfg.LogoPath)
		if err != nil {
			return nil, fmt.Errorf("load logo: %w", err)
		}
		logo = img
	}

	composer, err := layout.NewComposer(l, logo, logger)
	if err != nil {
		return nil, err
	}

	enc := pdf.NewEncoder(l.Font)
	enc.Compress = cfg.CompressPDF

	st, err := store.New(cfg.SessionDir, l.Size(), enc, logger)
	if err != nil {
		return nil, err
	}

	appender := transcript.New(st, composer, logger)
	appender.Cover = cfg.CoverPage

	var redactor *redact.Redactor
	rc, ok, err := redact.ParseConfig(cfg.Redact)
	if err != nil {
		return nil, err
	}
	if ok {
		redactor = redact.New(rc)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		encoder:  enc,
		composer: composer,
		store:    st,
		appender: appender,
		redactor: redactor,
		renderers: map[string]func() render.Renderer{
			"terminal": func() render.Renderer { return terminal.New() },
			"html":     func() render.Renderer { return htmlrender.New() },
			"json":     func() render.Renderer { return &jsonrender.Renderer{Indent: true} },
			"pdf":      func() render.Renderer { return enc },
		},
	}, nil
}

func (a *app) renderer(name string) (render.Renderer, error) {
	fn, ok := a.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(), nil
}

// service builds the full chat service. withProviders is false for commands
// that never generate answers.
func (a *app) service(ctx context.Context, withProviders bool) (*service.Service, error) {
	svc := &service.Service{
		Config: service.Config{
			Prompt:           a.cfg.Prompt,
			DefaultSession:   a.cfg.DefaultSession,
			ClearAfterUpload: a.cfg.ClearAfterUpload,
		},
		Transcripts: a.appender,
		Store:       a.store,
		Redactor:    a.redactor,
		Logger:      a.logger,
	}

	var err error
	if svc.Blob, err = a.blob(ctx); err != nil {
		return nil, err
	}
	if svc.HistoryStore, err = a.history(); err != nil {
		return nil, err
	}
	if svc.Events, err = a.events(); err != nil {
		return nil, err
	}

	if !withProviders {
		svc.Generator = provider.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", errors.New("no generator configured")
		})
		return svc, nil
	}
	if svc.Generator, err = a.generator(ctx); err != nil {
		return nil, err
	}
	if svc.Speech, err = a.speech(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (a *app) generator(ctx context.Context) (provider.Generator, error) {
	g, err := gemini.New(ctx, gemini.Config{
		Backend:  a.cfg.Provider,
		APIKey:   a.cfg.GeminiAPIKey,
		Project:  a.cfg.ProjectID,
		Location: a.cfg.Location,
		Model:    a.cfg.Model,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("generation provider ready", "provider", g.Name(), "model", a.cfg.Model)
	return provider.WithTimeout(g, g.Name(), a.cfg.ProviderTimeout), nil
}

func (a *app) speech(ctx context.Context) (provider.Synthesizer, error) {
	if !a.cfg.TTS {
		return nil, nil
	}
	s, err := googletts.New(ctx, provider.Voice{
		LanguageCode: a.cfg.LanguageCode,
		Name:         a.cfg.VoiceName,
		Gender:       a.cfg.SSMLGender,
		Encoding:     a.cfg.AudioEncoding,
	}, a.cfg.CredentialsFile, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s)
	return provider.SynthesizerWithTimeout(s, "googletts", a.cfg.ProviderTimeout), nil
}

func (a *app) blob(ctx context.Context) (blob.Store, error) {
	var opts []option.ClientOption
	if a.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(a.cfg.CredentialsFile))
	}

	switch a.cfg.Blob {
	case "":
		return nil, nil
	case "gcs":
		if a.cfg.Bucket == "" {
			return nil, errors.New("--bucket is required for the gcs archive")
		}
		s, err := gcs.New(ctx, a.cfg.Bucket, a.logger, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	case "drive":
		if a.cfg.DriveFolderID == "" {
			return nil, errors.New("--drive-folder is required for the drive archive")
		}
		return drive.New(ctx, a.cfg.DriveFolderID, a.logger, opts...)
	case "local":
		return local.New(a.cfg.BlobDir, a.cfg.BlobBaseURL)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", a.cfg.Blob)
	}
}

func (a *app) history() (history.Store, error) {
	h, err := history.Open(history.Config{
		Backend:       a.cfg.History,
		RedisAddr:     a.cfg.RedisAddr,
		RedisPassword: a.cfg.RedisPassword,
		SQLitePath:    a.cfg.SQLitePath,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, h)
	return h, nil
}

func (a *app) events() (events.Publisher, error) {
	if a.cfg.AMQPURL == "" {
		return events.Nop{}, nil
	}
	p, err := events.DialAMQP(a.cfg.AMQPURL, a.cfg.AMQPExchange)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, p)
	return p, nil
}

// close releases every client opened by the app, newest first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("failed to close client", "err", err)
		}
	}
	a.closers = nil
}
