package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"voxelnav/core"
	"voxelnav/nav"
	"voxelnav/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	schemaDir := flag.String("schema", "", "write config and scene JSON schemas to this directory and exit")
	dryRun := flag.Bool("dry-run", false, "build the grid, run every request once and exit")
	flag.Parse()

	if *schemaDir != "" {
		if err := writeSchemas(*schemaDir); err != nil {
			log.Fatalf("failed to write schemas: %v", err)
		}
		return
	}

	cm, err := core.NewConfigManager(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	files := core.NewFileManager(filepath.Dir(*configPath))
	config := cm.GetConfig()

	var scene *core.SceneDefinition
	if config.Scene.Path != "" && files.PathExists(config.Scene.Path) {
		if scene, err = files.LoadScene(config.Scene.Path); err != nil {
			log.Fatalf("failed to load scene: %v", err)
		}
	} else {
		log.Printf("scene %q not found, probing an empty world", config.Scene.Path)
	}
	world, err := buildWorld(scene)
	if err != nil {
		log.Fatalf("failed to build world: %v", err)
	}

	agent, err := NewAgent(cm, files, world)
	if err != nil {
		log.Fatalf("failed to create agent: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		log.Println("Running in dry-run mode")
		if err := runOnce(ctx, agent); err != nil {
			log.Fatalf("dry run failed: %v", err)
		}
		return
	}

	if config.WebManager.Enabled {
		hub := web.NewHub(agent)
		go hub.Run(ctx)
		agent.SetHub(hub)

		srv := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.WebManager.Host, config.WebManager.Port),
			Handler: web.NewHandler(hub),
		}
		go func() {
			log.Printf("web manager listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web manager stopped: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("agent stopped: %v", err)
	}
}

// runOnce steps the agent once per tick until the grid is built and every
// request has published a result.
func runOnce(ctx context.Context, agent *Agent) error {
	ticker := time.NewTicker(agent.tick)
	defer ticker.Stop()
	for {
		agent.Step(ctx)
		done, err := dryRunDone(agent)
		if err != nil {
			return err
		}
		if done {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	state, err := agent.State()
	if err != nil {
		return err
	}
	fmt.Println(string(state))
	return nil
}

func dryRunDone(agent *Agent) (bool, error) {
	if agent.Grid.State() != nav.Complete {
		return false, nil
	}
	for _, req := range agent.Requests {
		if req.PathFinished() {
			continue
		}
		if err := req.Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func writeSchemas(dir string) error {
	if err := core.WriteSchema(filepath.Join(dir, "config.schema.json"), core.ConfigSchema()); err != nil {
		return err
	}
	return core.WriteSchema(filepath.Join(dir, "scene.schema.json"), core.SceneSchema())
}
