package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/genai"

	"github.com/calebhs/linkhive/internal/auth"
	"github.com/calebhs/linkhive/internal/config"
	"github.com/calebhs/linkhive/internal/db"
	"github.com/calebhs/linkhive/internal/extract"
	"github.com/calebhs/linkhive/internal/logging"
	"github.com/calebhs/linkhive/internal/models"
	"github.com/calebhs/linkhive/internal/pipeline"
	"github.com/calebhs/linkhive/internal/service"
	"github.com/calebhs/linkhive/internal/summarize"
)

func setupDb(cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	err := db.Migrate(cfg.PgConnectionString())
	if err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	pool, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}
	return pool, nil
}

func main() {
	cfg, err := config.LoadEnvConfig()
	if err != nil {
		panic(err)
	}

	logging.Init(cfg)
	defer logging.Sync()

	if err := run(cfg); err != nil {
		logging.Logger.Fatalw("server exited", "error", err)
	}
}

func run(cfg *config.AppConfig) error {
	ctx := context.Background()

	pool, err := setupDb(cfg.PSQL)
	if err != nil {
		return err
	}
	defer pool.Close()

	genAIClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.ApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("creating Gemini client: %w", err)
	}

	// Models
	bookmarkModel := &models.BookmarkModel{Pool: pool}
	contentModel := &models.ContentModel{Pool: pool}
	tagModel := &models.TagModel{Pool: pool}
	tokenModel := &models.TokenModel{Pool: pool}

	// Pipeline
	processor := &pipeline.Processor{
		Bookmarks: bookmarkModel,
		Tags:      tagModel,
		Extractor: extract.New(cfg.Fetch),
		Summarizer: summarize.New(genAIClient, summarize.Options{
			Model:      cfg.Gemini.Model,
			Timeout:    cfg.Gemini.Timeout,
			MaxRetries: cfg.Gemini.MaxRetries,
		}),
	}

	bookmarksController := &service.Bookmarks{
		BookmarkModel: bookmarkModel,
		ContentModel:  contentModel,
		TagModel:      tagModel,
		Processor:     processor,
	}

	amw := auth.ApiMiddleware{
		TokenModel: tokenModel,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(amw.RequireApiToken)
		r.Route("/bookmarks", func(r chi.Router) {
			r.Post("/", bookmarksController.Create)
			r.Get("/", bookmarksController.Index)
			r.Get("/search", bookmarksController.Search)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookmarksController.Show)
				r.Patch("/", bookmarksController.Update)
				r.Delete("/", bookmarksController.Delete)
				r.Post("/reprocess", bookmarksController.Reprocess)
				r.Put("/summary", bookmarksController.UpdateSummaries)
				r.Get("/markdown", bookmarksController.Markdown)
				r.Post("/tags", bookmarksController.AddTags)
				r.Delete("/tags/{tagId}", bookmarksController.RemoveTag)
			})
		})
	})

	logging.Logger.Infow("starting server", "address", cfg.Server.Address)
	return http.ListenAndServe(cfg.Server.Address, r)
}
