package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/zalogbot/core/config"
	coretelegram "github.com/m3rciful/zalogbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresHooksAndCloses(t *testing.T) {
	t.Setenv("ZALOG_TEST_CONFIG", "config.yaml")
	app := &fakeApp{}
	var gotPath string
	started := false

	err := Run(Options{
		ConfigEnvVar: "ZALOG_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if opts.OnStart == nil || opts.OnStop == nil {
				t.Fatal("lifecycle hooks not wired")
			}
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotPath != "config.yaml" || !started || !app.closed {
		t.Fatalf("path=%q started=%v closed=%v", gotPath, started, app.closed)
	}
}

func TestRunPropagatesLoadError(t *testing.T) {
	want := errors.New("bad yaml")
	err := Run(Options{
		DefaultConfigPath: "missing.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, want },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, want) {
		t.Fatalf("Run error = %v", err)
	}
}
