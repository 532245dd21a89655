package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp-microservices/people-and-organizations/internal/adapters/repository/postgres"
	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/platform/config"
	pg "github.com/erp-microservices/people-and-organizations/internal/platform/db/postgres"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Nodes []seedNode `yaml:"nodes"`
}

type seedNode struct {
	Kind         string `yaml:"kind"`
	Description  string `yaml:"description"`
	Parent       string `yaml:"parent"`
	FromRoleType string `yaml:"from_role_type"`
	ToRoleType   string `yaml:"to_role_type"`
}

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		seedPath   = flag.String("seed", "assets/seed.yaml", "path to the reference data file")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(effectiveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	nodes, err := loadSeedNodes(*seedPath)
	if err != nil {
		log.Fatalf("failed to load seed file: %v", err)
	}

	repo := postgres.NewTaxonomyRepository(pool)
	created, err := applySeedNodes(ctx, repo, nodes)
	if err != nil {
		log.Fatalf("failed to apply seed data: %v", err)
	}

	log.Printf("seed completed: %d nodes created, %d already present", created, len(nodes)-created)
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func loadSeedNodes(path string) ([]seedNode, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Nodes) == 0 {
		return nil, fmt.Errorf("%s contains no nodes", path)
	}
	return file.Nodes, nil
}

// applySeedNodes はファイル内の定義順にノードを投入します。親ノードは
// 子より前に定義されている必要があります。既存ノードはそのまま残します。
func applySeedNodes(ctx context.Context, repo taxonomy.Repository, nodes []seedNode) (int, error) {
	created := 0
	for _, entry := range nodes {
		kind := taxonomy.Kind(entry.Kind)
		if !taxonomy.IsValidKind(kind) {
			return created, fmt.Errorf("node %q: unknown kind %q", entry.Description, entry.Kind)
		}

		existing, err := repo.FindByDescription(ctx, kind, entry.Description)
		if err == nil {
			log.Printf("skip %s %q: already present", entry.Kind, existing.Description)
			continue
		}
		if !errors.Is(err, taxonomy.ErrNodeNotFound) {
			return created, fmt.Errorf("lookup %s %q: %w", entry.Kind, entry.Description, err)
		}

		node := &taxonomy.Node{
			Kind:         kind,
			Description:  entry.Description,
			FromRoleType: entry.FromRoleType,
			ToRoleType:   entry.ToRoleType,
		}
		if entry.Parent != "" {
			parent, err := repo.FindByDescription(ctx, kind, entry.Parent)
			if err != nil {
				return created, fmt.Errorf("node %q: resolve parent %q: %w", entry.Description, entry.Parent, err)
			}
			parentID := parent.ID
			node.ParentID = &parentID
		}

		if _, err := repo.Create(ctx, node); err != nil {
			if errors.Is(err, taxonomy.ErrDuplicateNode) {
				log.Printf("skip %s %q: created concurrently", entry.Kind, entry.Description)
				continue
			}
			return created, fmt.Errorf("create %s %q: %w", entry.Kind, entry.Description, err)
		}
		created++
		log.Printf("created %s %q", entry.Kind, entry.Description)
	}
	return created, nil
}
