package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"ai-novelwriter-be/internal/bootstrap"
	"ai-novelwriter-be/internal/config"
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/implementation"
	"ai-novelwriter-be/pkg/database"
	"ai-novelwriter-be/pkg/similarity"
	"ai-novelwriter-be/pkg/storycontext"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// semantic_probe runs one semantic search against the configured database and
// shows which hits clear each threshold level, plus the context block the
// injector would build for the project.
func main() {
	projectFlag := flag.String("project", "", "project id to search (required)")
	typeFlag := flag.String("type", "", "restrict to an entity type")
	limitFlag := flag.Int("limit", 10, "maximum hits")
	showContext := flag.Bool("context", false, "print the injected context block")
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if *projectFlag == "" || query == "" {
		fmt.Fprintln(os.Stderr, "usage: semantic_probe -project <uuid> [-type lore] [-context] <query text>")
		os.Exit(2)
	}
	projectId, err := uuid.Parse(*projectFlag)
	if err != nil {
		log.Fatal("Invalid project ID:", err)
	}

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("DB_CONNECTION_STRING not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Failed to connect to DB:", err)
	}

	fileLog := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer fileLog.Sync()
	store := vectorstore.New(implementation.NewVectorRecordRepository(db, fileLog), bootstrap.NewEmbeddingProvider(cfg), bootstrap.EmbeddingModel(cfg), fileLog)

	// Every candidate comes back; threshold levels are applied when printing.
	floor := -1.0
	q := vectorstore.SearchQuery{ProjectId: &projectId, QueryText: query, Limit: *limitFlag, Threshold: &floor}
	if *typeFlag != "" {
		entityType, err := entity.ParseEntityType(*typeFlag)
		if err != nil {
			color.Red("%v", err)
			os.Exit(2)
		}
		q.EntityType = &entityType
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	color.Cyan("Semantic probe: %q in project %s (model %s)\n", query, projectId, bootstrap.EmbeddingModel(cfg))
	start := time.Now()
	results, err := store.SemanticSearch(ctx, q)
	if err != nil {
		color.Red("Search failed: %v", err)
		os.Exit(1)
	}
	color.Green("%d candidate(s) in %s", len(results), time.Since(start).Round(time.Millisecond))

	for _, r := range results {
		label, paint := levelOf(r.Similarity)
		fmt.Printf("%s %-9s %-14s %s\n", paint(fmt.Sprintf("%.4f", r.Similarity)), r.EntityType, label, preview(r.Content, 70))
	}

	if !*showContext {
		return
	}

	project, err := implementation.NewProjectRepository(db, fileLog).FindAggregate(ctx, projectId)
	if err != nil || project == nil {
		color.Red("Project not loaded: %v", err)
		os.Exit(1)
	}
	res := contextBlock(ctx, project, query, results, cfg, fileLog)

	color.Yellow("\nInjected system prompt (~%d tokens):", res.EstimatedTokens)
	fmt.Println(res.SystemPrompt)
}

// contextBlock injects the project context, feeding hits that clear the search threshold in as related items.
func contextBlock(ctx context.Context, project *entity.Project, query string, results []entity.SimilarityResult, cfg *config.Config, log logger.ILogger) *storycontext.InjectionResult {
	opts := storycontext.DefaultInjectOptions()
	opts.Context.MaxTokens = cfg.Context.MaxTokens
	for _, r := range results {
		if r.Similarity >= cfg.Search.Threshold {
			opts.Context.Related = append(opts.Context.Related, r)
		}
	}
	injector := storycontext.NewInjector(storycontext.NewExtractor(nil), nil, log)
	return injector.InjectProjectContext(ctx, project, query, "", opts)
}

func levelOf(score float64) (string, func(a ...interface{}) string) {
	switch {
	case score >= similarity.Threshold(similarity.LevelStrict):
		return "strict", color.New(color.FgGreen).SprintFunc()
	case score >= similarity.Threshold(similarity.LevelModerate):
		return "moderate", color.New(color.FgYellow).SprintFunc()
	case score >= similarity.Threshold(similarity.LevelLenient):
		return "lenient", color.New(color.FgRed).SprintFunc()
	default:
		return "below lenient", color.New(color.FgHiBlack).SprintFunc()
	}
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
