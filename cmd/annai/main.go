// Package main is the Annai CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/chat"
	"github.com/hyperjump/annai/internal/config"
	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/history"
	"github.com/hyperjump/annai/internal/ingest"
	"github.com/hyperjump/annai/internal/llm"
	"github.com/hyperjump/annai/internal/profile"
	"github.com/hyperjump/annai/internal/retrieval"
	"github.com/hyperjump/annai/internal/server"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/annai/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if neither
// exists, built-in defaults are used so the assistant works out of the box.
// An explicitly given path that fails to load is an error.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "chat":
		runChat()
	case "index":
		runIndex()
	case "sessions":
		runSessions()
	case "status":
		runStatus()
	case "apikey":
		runAPIKey()
	case "version", "--version", "-v":
		fmt.Printf("annai version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (retrieval, ingestion, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	logger.Info("building knowledge index", zap.String("dir", cfg.Knowledge.Dir))
	idx, err := components.Builder.BuildOrLoad(context.Background())
	if err != nil {
		logger.Fatal("Failed to build knowledge index", zap.Error(err))
	}

	orchestrator := chat.NewOrchestrator(groqFactory(cfg), cfg.Retrieval.TopK, logger)
	orchestrator.SetIndex(retrieval.NewRetriever(idx, components.Embedder))

	hist := history.NewStore(cfg.Storage.HistoryPath, logger)
	profiles := profile.NewStore(cfg.Storage.ProfilePath, logger)

	srv := server.NewServer(orchestrator, hist, profiles,
		components.Builder, components.Embedder, idx, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := idx.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// groqFactory builds the lazy LLM client constructor used by the orchestrator.
func groqFactory(cfg *config.Config) chat.ClientFactory {
	return func(apiKey string) (llm.Client, error) {
		if err := llm.ValidateKey(apiKey); err != nil {
			return nil, err
		}
		return llm.NewGroqClient(llm.GroqConfig{
			APIKey:      apiKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		})
	}
}

// buildChatMessage joins all positional args with spaces so multi-word
// questions work the same with or without shell quoting.
func buildChatMessage(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

type chatAPIRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatAPIResponse struct {
	Response string `json:"response"`
	Sources  []struct {
		Source  string `json:"source"`
		Preview string `json:"preview"`
	} `json:"sources"`
	SessionID string `json:"session_id"`
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8090", "server URL")
	sessionID := fs.String("session", "", "session id (empty = active session)")
	showSources := fs.Bool("sources", true, "print retrieved source previews")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: annai chat [flags] <message>")
		os.Exit(1)
	}
	message := buildChatMessage(fs.Args())
	if message == "" {
		fmt.Println("Usage: annai chat [flags] <message>")
		os.Exit(1)
	}

	body, _ := json.Marshal(chatAPIRequest{Message: message, SessionID: *sessionID})
	resp, err := http.Post(*serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out chatAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(out.Response)
	if *showSources && len(out.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range out.Sources {
			fmt.Printf("  • [%s] %s\n", s.Source, s.Preview)
		}
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = rebuild directly against local storage)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids SQLite lock conflict).
		resp, err := http.Post(*serverURL+"/api/v1/index/rebuild", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Chunks int `json:"chunks"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Index rebuilt: %d chunk(s)\n", out.Chunks)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	idx, err := components.Builder.Rebuild(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index rebuilt: %d chunk(s) from %s\n", idx.Size(), cfg.Knowledge.Dir)
}

func runSessions() {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8090", "server URL (empty = read local history file)")
	_ = fs.Parse(os.Args[2:])

	var sessions []history.Summary
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/sessions")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Sessions []history.Summary `json:"sessions"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
			os.Exit(1)
		}
		sessions = out.Sessions
	} else {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		sessions = history.NewStore(cfg.Storage.HistoryPath, zap.NewNop()).List()
	}

	if len(sessions) == 0 {
		fmt.Println("No past conversations")
		return
	}
	for _, s := range sessions {
		marker := " "
		if s.Active {
			marker = "*"
		}
		fmt.Printf("%s %s  %-28s %3d message(s)  %s\n", marker, s.Time, s.Name, s.Messages, s.ID)
	}
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Chunks   int    `json:"chunks"`
	Sessions int    `json:"sessions"`
	State    string `json:"state"`
	Config   *struct {
		Model               string `json:"model"`
		EmbeddingDimensions int    `json:"embedding_dimensions"`
		ChunkSize           int    `json:"chunk_size"`
		ChunkOverlap        int    `json:"chunk_overlap"`
		TopK                int    `json:"top_k"`
		KnowledgeDir        string `json:"knowledge_dir"`
	} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8090", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("chunks:    %d   # indexed knowledge chunks\n", status.Chunks)
		fmt.Printf("sessions:  %d   # conversations with messages\n", status.Sessions)
		fmt.Printf("state:     %s\n", status.State)
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			fmt.Printf("model:          %s\n", status.Config.Model)
			fmt.Printf("embedding_dims: %d\n", status.Config.EmbeddingDimensions)
			fmt.Printf("chunk_size:     %d\n", status.Config.ChunkSize)
			fmt.Printf("chunk_overlap:  %d\n", status.Config.ChunkOverlap)
			fmt.Printf("top_k:          %d\n", status.Config.TopK)
			fmt.Printf("knowledge_dir:  %s\n", status.Config.KnowledgeDir)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runAPIKey() {
	fs := flag.NewFlagSet("apikey", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: annai apikey [flags] <gsk_...>")
		os.Exit(1)
	}
	key := fs.Arg(0)
	if err := llm.ValidateKey(key); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.SaveAPIKey(cfg.Storage.EnvPath, key); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to store API key: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("API key stored in %s\n", cfg.Storage.EnvPath)
}

// Components holds initialized services.
type Components struct {
	Store    *storage.ChunkStore
	Embedder embedding.Embedder
	Builder  *ingest.Builder
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewChunkStore(cfg.Storage.ChunkDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunk store: %w", err)
	}

	var embedder embedding.Embedder
	if cfg.Embedding.ModelPath != "" {
		onnxEmbedder, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
		)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using hash embedder", zap.Error(err))
			embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
		} else {
			embedder = onnxEmbedder
		}
	} else {
		embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	chunker := ingest.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	builder := ingest.NewBuilder(store, embedder, chunker,
		cfg.Knowledge.Dir, cfg.Storage.VectorIndexPath, logger)

	return &Components{
		Store:    store,
		Embedder: embedder,
		Builder:  builder,
	}, nil
}

func printUsage() {
	fmt.Println(`annai - Local retrieval-augmented career guidance assistant

Usage:
  annai server [flags]            Start the HTTP chat API server
  annai chat [flags] <message>    Ask a question against a running server
  annai index [flags]             Rebuild the knowledge index
  annai sessions [flags]          List past conversations
  annai status [flags]            Show index/session status from a running server
  annai apikey <gsk_...>          Store the Groq API key
  annai version                   Show version
  annai help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/annai/config.yaml,
                     falls back to ./config.yaml, then built-in defaults)
  --debug            Enable debug logging

Chat Flags:
  --server string    Server URL (default: http://localhost:8090)
  --session string   Session id to continue (default: active session)
  --sources          Print retrieved source previews (default: true)

Index Flags:
  --config string    Config file path
  --server string    Server URL; empty rebuilds directly against local storage

Sessions Flags:
  --server string    Server URL (default: http://localhost:8090). Use empty
                     (--server "") to read the local history file.

Status Flags:
  --server string    Server URL (default: http://localhost:8090)
  --output string    Output format: text or json (default: text)

Examples:
  annai server
  annai apikey gsk_yourkeyhere
  annai chat "Should I learn Rust or Go for backend work?"
  annai chat --session 3f2a... "What about databases?"
  annai index
  annai sessions
  annai status --output json`)
}
