// recipex runs the extraction pipeline from the command line: one URL, one
// image, or a batch file of URLs.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"

	aicache "recipe-extractor/internal/core/ai/cache"
	"recipe-extractor/internal/core/ai/extract"
	"recipe-extractor/internal/core/ai/openrouter"
	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/image"
	"recipe-extractor/internal/core/pipeline"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
	"recipe-extractor/internal/storage/sqlite"
)

func main() {
	app := &cli.App{
		Name:  "recipex",
		Usage: "extract structured recipes from web pages and images",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "emit compact JSON instead of indented",
			},
			&cli.BoolFlag{
				Name:  "no-ai",
				Usage: "structured-data extraction only, never call the model",
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "persist results to the local store under this owner",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "extract a recipe from a URL",
				ArgsUsage: "<url>",
				Action:    extractAction,
			},
			{
				Name:      "extract-image",
				Usage:     "extract a recipe from an image file",
				ArgsUsage: "<path>",
				Action:    extractImageAction,
			},
			{
				Name:      "batch",
				Usage:     "extract recipes from a file of URLs, one per line",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Value: 4,
						Usage: "concurrent extractions",
					},
				},
				Action: batchAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type env struct {
	cfg   *config.Config
	orch  *pipeline.Orchestrator
	store *sqlite.Store
	close func()
}

// setup assembles the pipeline once per invocation. The store is opened only
// when --owner asks for persistence.
func setup(c *cli.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.Bool("no-ai") {
		cfg.OpenRouter.Enabled = false
	}

	// CLI output goes to stdout; keep the log noise down.
	if err := common.InitLogger("error"); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cacheManager := aicache.NewManager(cfg)
	aiService := extract.NewService(cfg, openrouter.NewClient(cfg), cacheManager)
	fetcher := fetch.New(&cfg.Fetch)

	var store *sqlite.Store
	if c.String("owner") != "" {
		store, err = sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			fetcher.Close()
			cacheManager.Close()
			return nil, fmt.Errorf("failed to open recipe store: %w", err)
		}
	}

	return &env{
		cfg:   cfg,
		orch:  pipeline.New(fetcher, aiService, image.NewService(cfg)),
		store: store,
		close: func() {
			if store != nil {
				_ = store.Close()
			}
			fetcher.Close()
			cacheManager.Close()
			common.Sync()
		},
	}, nil
}

func extractAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: recipex extract <url>", 2)
	}

	e, err := setup(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer e.close()

	result := e.orch.ExtractFromURL(c.Context, c.Args().First(), pipeline.Options{SkipAI: c.Bool("no-ai")})
	return emit(c, e, result)
}

func extractImageAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: recipex extract-image <path>", 2)
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read image: %v", err), 2)
	}

	e, err := setup(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer e.close()

	result := e.orch.ExtractFromImage(c.Context, base64.StdEncoding.EncodeToString(data))
	return emit(c, e, result)
}

func batchAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: recipex batch <file>", 2)
	}

	urls, err := readURLs(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if len(urls) == 0 {
		return cli.Exit("no URLs in file", 2)
	}

	e, err := setup(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer e.close()

	workers := c.Int("workers")
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string, len(urls))
	results := make(chan *recipe.ExtractionResult, len(urls))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				results <- e.orch.ExtractFromURL(c.Context, url, pipeline.Options{SkipAI: c.Bool("no-ai")})
			}
		}()
	}

	for _, u := range urls {
		jobs <- u
	}
	close(jobs)

	wg.Wait()
	close(results)

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	for r := range results {
		if !r.Success {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write result: %v", err), 1)
		}
		if r.Success && e.store != nil {
			if _, err := e.store.Save(c.Context, c.String("owner"), r.Recipe); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to save %s: %v\n", r.Recipe.SourceURL, err)
			}
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d extractions failed", failed, len(urls)), 1)
	}
	return nil
}

func emit(c *cli.Context, e *env, result *recipe.ExtractionResult) error {
	if result.Success && e.store != nil {
		if _, err := e.store.Save(c.Context, c.String("owner"), result.Recipe); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save recipe: %v\n", err)
		}
	}

	var (
		out []byte
		err error
	)
	if c.Bool("compact") {
		out, err = json.Marshal(result)
	} else {
		out, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to encode result: %v", err), 1)
	}
	fmt.Println(string(out))

	if !result.Success {
		return cli.Exit(fmt.Sprintf("extraction failed: %s (%s)", result.Error, result.Code), 1)
	}
	return nil
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
