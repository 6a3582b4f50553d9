package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/marchepublic/ao-agent/agents"
	"github.com/marchepublic/ao-agent/api"
	"github.com/marchepublic/ao-agent/chat"
	"github.com/marchepublic/ao-agent/config"
	"github.com/marchepublic/ao-agent/crossdoc"
	"github.com/marchepublic/ao-agent/database"
	"github.com/marchepublic/ao-agent/embeddings"
	"github.com/marchepublic/ao-agent/extract"
	"github.com/marchepublic/ao-agent/index"
	"github.com/marchepublic/ao-agent/knowledge"
	"github.com/marchepublic/ao-agent/llm"
	"github.com/marchepublic/ao-agent/memory"
	"github.com/marchepublic/ao-agent/pipeline"
	"github.com/marchepublic/ao-agent/session"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "analyze":
		analyzeCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "memory":
		memoryCmd(cfg, logger, os.Args[2:])
	case "runs":
		runsCmd(cfg, logger, os.Args[2:])
	case "purge":
		purgeCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// services bundles the wired backends for one command invocation.
type services struct {
	store   *session.Store
	indexes *index.Store
	graph   *knowledge.Graph
	pool    *pgxpool.Pool
	driver  neo4j.DriverWithContext
}

func (s *services) close(ctx context.Context, logger *log.Logger) {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.driver != nil {
		if err := s.driver.Close(ctx); err != nil {
			logger.Printf("close neo4j driver: %v", err)
		}
	}
}

func connect(ctx context.Context, cfg config.Config, logger *log.Logger) *services {
	svcs := &services{store: session.NewStore(cfg.StorageDir, logger)}

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	svcs.pool = pool

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}
	svcs.indexes = index.NewStore(pool, embedder, logger, cfg.Embeddings.Dimension)

	if cfg.Neo4jURI != "" {
		driver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
		if err != nil {
			logger.Fatalf("neo4j connection: %v", err)
		}
		svcs.driver = driver
		svcs.graph = knowledge.NewGraph(driver)
	}

	return svcs
}

func buildPipeline(cfg config.Config, svcs *services, logger *log.Logger) *pipeline.Service {
	client, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	var indexer pipeline.Indexer
	if svcs.indexes != nil {
		indexer = svcs.indexes
	}
	var graph pipeline.GraphStore
	if svcs.graph != nil {
		graph = svcs.graph
	}

	return pipeline.NewService(
		cfg,
		extract.New(logger),
		agents.NewOrchestrator(agents.NewAnalyzer(client, cfg.MaxPromptChars), logger),
		crossdoc.NewAggregator(client, logger),
		memory.NewGenerator(client, logger),
		svcs.store,
		indexer,
		graph,
		logger,
	)
}

func buildChat(cfg config.Config, svcs *services, logger *log.Logger) *chat.Service {
	client, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}
	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	var graph chat.GraphStore
	if svcs.graph != nil {
		graph = svcs.graph
	}
	return chat.NewService(svcs.indexes, graph, embedder, client, logger)
}

func analyzeCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("analyze", flag.ExitOnError)
	runID := flags.String("run", "", "reuse an existing run identifier")
	dir := flags.String("dir", "", "analyze every file in this directory")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse analyze flags: %v", err)
	}

	files := flags.Args()
	if *dir != "" {
		entries, err := os.ReadDir(*dir)
		if err != nil {
			logger.Fatalf("read directory: %v", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				files = append(files, filepath.Join(*dir, entry.Name()))
			}
		}
	}
	if len(files) == 0 {
		logger.Fatal("analyze requires at least one file (arguments or -dir)")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcs := connect(ctx, cfg, logger)
	defer svcs.close(ctx, logger)

	if *runID == "" {
		*runID = session.NewRunID()
	}
	purgeExpired(cfg, svcs.store, logger, *runID)

	svc := buildPipeline(cfg, svcs, logger)
	run, err := svc.Analyze(ctx, *runID, files)
	if err != nil {
		logger.Fatalf("analyze failed: %v", err)
	}

	fmt.Printf("Run %s : %d document(s) analysé(s)\n", run.ID, len(run.Records))
	for _, rec := range run.Records {
		fmt.Printf("  - %s → %s\n", rec.Name, rec.Type.Label())
	}
	fmt.Printf("Artefacts : %s\n", svcs.store.RunDir(run.ID))
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	runID := flags.String("run", "", "run identifier to chat about")
	question := flags.String("question", "", "single question; omit for an interactive session")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}
	if strings.TrimSpace(*runID) == "" {
		logger.Fatal("chat requires -run")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcs := connect(ctx, cfg, logger)
	defer svcs.close(ctx, logger)

	svc := buildChat(cfg, svcs, logger)

	if strings.TrimSpace(*question) != "" {
		resp, _, err := svc.Ask(ctx, *runID, *question, nil)
		if err != nil {
			logger.Fatalf("chat failed: %v", err)
		}
		printAnswer(resp)
		return
	}

	history := make([]llm.Message, 0)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		resp, updated, err := svc.Ask(ctx, *runID, line, history)
		if err != nil {
			logger.Fatalf("chat failed: %v", err)
		}
		history = updated
		printAnswer(resp)
	}
	if err := scanner.Err(); err != nil {
		logger.Fatalf("read question: %v", err)
	}
}

func printAnswer(resp chat.Response) {
	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources :")
		for idx, source := range resp.Sources {
			fmt.Printf("%d. %s (%s)\n", idx+1, source.DocumentName, source.DocumentType)
		}
	}
	fmt.Println()
}

func memoryCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("memory", flag.ExitOnError)
	runID := flags.String("run", "", "run identifier")
	output := flags.String("out", "", "write the markdown to a file instead of stdout")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse memory flags: %v", err)
	}
	if strings.TrimSpace(*runID) == "" {
		logger.Fatal("memory requires -run")
	}

	store := session.NewStore(cfg.StorageDir, logger)
	mem, err := store.LoadMemory(*runID)
	if err != nil {
		logger.Fatalf("load memory: %v", err)
	}

	rendered := memory.RenderMarkdown(mem)
	if *output == "" {
		fmt.Print(rendered)
		return
	}
	if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
		logger.Fatalf("write markdown: %v", err)
	}
	logger.Printf("mémoire technique écrite dans %s", *output)
}

func runsCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("runs", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse runs flags: %v", err)
	}

	store := session.NewStore(cfg.StorageDir, logger)
	runs, err := store.Runs()
	if err != nil {
		logger.Fatalf("list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("Aucun run persisté.")
		return
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %d document(s)\n", run.ID, run.UpdatedAt.Format("2006-01-02 15:04"), run.Documents)
	}
}

func purgeCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("purge", flag.ExitOnError)
	days := flags.Int("days", cfg.AutoPurgeDays, "delete runs older than this many days")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse purge flags: %v", err)
	}

	store := session.NewStore(cfg.StorageDir, logger)
	deleted := store.PurgeExpired(time.Duration(*days) * 24 * time.Hour)
	if len(deleted) == 0 {
		logger.Println("no expired runs")
		return
	}
	logger.Printf("purged %d run(s): %s", len(deleted), strings.Join(deleted, ", "))
	cleanupSideChannels(cfg, logger, deleted)
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", ":8080", "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcs := connect(ctx, cfg, logger)
	defer svcs.close(ctx, logger)

	purgeExpired(cfg, svcs.store, logger, "")

	deleters := make([]api.RunDeleter, 0, 2)
	if svcs.indexes != nil {
		deleters = append(deleters, svcs.indexes)
	}
	if svcs.graph != nil {
		deleters = append(deleters, svcs.graph)
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(cfg, buildPipeline(cfg, svcs, logger), buildChat(cfg, svcs, logger), svcs.store, logger, deleters...),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

// purgeExpired sweeps stale runs at startup, never touching the run the
// current command is about to work on.
func purgeExpired(cfg config.Config, store *session.Store, logger *log.Logger, activeRun string) {
	maxAge := time.Duration(cfg.AutoPurgeDays) * 24 * time.Hour
	var deleted []string
	if activeRun != "" {
		deleted = store.PurgeExpired(maxAge, activeRun)
	} else {
		deleted = store.PurgeExpired(maxAge)
	}
	if len(deleted) > 0 {
		logger.Printf("purged %d expired run(s): %s", len(deleted), strings.Join(deleted, ", "))
		cleanupSideChannels(cfg, logger, deleted)
	}
}

// cleanupSideChannels drops index and graph rows of purged runs. Best-effort:
// a failure only logs, the directories are already gone.
func cleanupSideChannels(cfg config.Config, logger *log.Logger, runIDs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err == nil {
		defer pool.Close()
		store := index.NewStore(pool, nil, logger, cfg.Embeddings.Dimension)
		for _, id := range runIDs {
			if err := store.DeleteRun(ctx, id); err != nil {
				logger.Printf("purge index for %s: %v", id, err)
			}
		}
	}

	if cfg.Neo4jURI == "" {
		return
	}
	driver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Printf("purge graph connection: %v", err)
		return
	}
	defer driver.Close(ctx)
	graph := knowledge.NewGraph(driver)
	for _, id := range runIDs {
		if err := graph.DeleteRun(ctx, id); err != nil {
			logger.Printf("purge graph for %s: %v", id, err)
		}
	}
}

func printUsage() {
	fmt.Println("Usage: ao-agent <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  analyze  Analyse un dossier de consultation (fichiers en arguments)")
	fmt.Println("  chat     Pose des questions sur un run analysé (-run, -question)")
	fmt.Println("  memory   Rend la mémoire technique d'un run en Markdown (-run, -out)")
	fmt.Println("  runs     Liste les runs persistés")
	fmt.Println("  purge    Supprime les runs expirés (-days)")
	fmt.Println("  serve    Démarre l'API HTTP (-addr)")
}
