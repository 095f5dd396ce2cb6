package command

import (
	"context"
	"testing"

	"codeforge/server/internal/config"
)

func TestBuildApp_DefaultCommandIsServe(t *testing.T) {
	serveCalled := 0
	migrateCalled := 0
	app := BuildApp(Deps{
		LoadConfig: func(string) (config.Config, error) {
			return config.Config{}, nil
		},
		RunServe: func(context.Context, config.Config) error {
			serveCalled++
			return nil
		},
		RunMigrateUp: func(context.Context, config.Config) error {
			migrateCalled++
			return nil
		},
	})
	if err := app.RunContext(context.Background(), []string{"codeforge"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if serveCalled != 1 || migrateCalled != 0 {
		t.Fatalf("unexpected call count serve=%d migrate=%d", serveCalled, migrateCalled)
	}
}

func TestBuildApp_MigrateUpCommand(t *testing.T) {
	migrateCalled := 0
	app := BuildApp(Deps{
		LoadConfig: func(string) (config.Config, error) {
			return config.Config{}, nil
		},
		RunServe: func(context.Context, config.Config) error { return nil },
		RunMigrateUp: func(context.Context, config.Config) error {
			migrateCalled++
			return nil
		},
	})
	if err := app.RunContext(context.Background(), []string{"codeforge", "migrate", "up"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if migrateCalled != 1 {
		t.Fatalf("expected migrate command called once, got %d", migrateCalled)
	}
}

func TestBuildApp_ConfigFlagForwarded(t *testing.T) {
	var seenPath string
	app := BuildApp(Deps{
		LoadConfig: func(path string) (config.Config, error) {
			seenPath = path
			return config.Config{}, nil
		},
		RunServe: func(context.Context, config.Config) error { return nil },
	})
	if err := app.RunContext(context.Background(), []string{"codeforge", "serve", "--config", "/tmp/custom.toml"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if seenPath != "/tmp/custom.toml" {
		t.Fatalf("config path not forwarded, got %q", seenPath)
	}
}
