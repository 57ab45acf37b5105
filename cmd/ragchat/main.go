package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/extract"
	"ragchat/internal/logger"
	"ragchat/internal/service"
	"ragchat/internal/tui"
	"ragchat/internal/watcher"
)

var (
	cfgPath string
	debug   bool
)

func main() {
	rootCmd := createRootCommand()
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/ragchat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(createAskCommand())
	rootCmd.AddCommand(createStatsCommand())
	rootCmd.AddCommand(createConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func createRootCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "ragchat [file]",
		Short: "Chat with a PDF or DOCX document",
		Long:  "Load a PDF or DOCX document, index it, and ask questions answered from its content in a terminal chat.",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if err := checkCredentials(cfg); err != nil {
				log.Fatal(err)
			}

			f, err := tea.LogToFile(cfg.Log.File, "")
			if err != nil {
				log.Fatalf("failed to open log file: %v", err)
			}
			defer f.Close()
			logger.Init(f, debug || cfg.Log.Debug)

			session, err := newSession(cfg)
			if err != nil {
				log.Fatalf("failed to assemble components: %v", err)
			}
			defer session.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			opts := tui.Options{
				TopK:        cfg.Retrieval.TopK,
				MaxTopK:     cfg.Retrieval.MaxTopK,
				ShowContext: !cfg.Retrieval.HideContext,
			}
			if len(args) == 1 {
				opts.InitialFile = args[0]
				opts.StartDir = filepath.Dir(args[0])
			}
			if watch {
				if opts.InitialFile == "" {
					log.Fatal("--watch needs a file argument")
				}
				w, err := watcher.New(0)
				if err != nil {
					log.Fatalf("failed to start watcher: %v", err)
				}
				defer w.Stop()
				changes, err := w.Watch(ctx, opts.InitialFile)
				if err != nil {
					log.Fatalf("failed to watch %s: %v", opts.InitialFile, err)
				}
				opts.Changes = changes
			}

			m := tui.New(ctx, session, opts)
			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				log.Fatal(err)
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the document when the file changes")
	return cmd
}

func createAskCommand() *cobra.Command {
	var (
		topK        int
		showContext bool
	)

	cmd := &cobra.Command{
		Use:   "ask FILE QUESTION...",
		Short: "Answer questions about a document without the TUI",
		Long:  "Load a document and answer each question in turn within one conversation, printing the answers to stdout.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := checkCredentials(cfg); err != nil {
				log.Fatal(err)
			}
			logger.Init(os.Stderr, debug || cfg.Log.Debug)

			if topK <= 0 {
				topK = cfg.Retrieval.TopK
			}
			topK = min(topK, cfg.Retrieval.MaxTopK)

			session, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			loaded, err := session.LoadDocument(ctx, doc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatStats(loaded))

			for _, q := range args[1:] {
				rec, _ := session.Ask(ctx, q, topK)
				fmt.Fprintf(out, "\nQ: %s\nA: %s\n", rec.Question, rec.Answer)
				if rec.Notice != "" {
					fmt.Fprintf(out, "(%s)\n", rec.Notice)
				}
				if showContext {
					for i, r := range rec.Context {
						fmt.Fprintf(out, "  [%d] score=%.3f %s\n", i+1, r.Score, preview(r.Chunk.Text, 100))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "k", 0, "number of chunks to retrieve (default from config)")
	cmd.Flags().BoolVar(&showContext, "show-context", false, "print the retrieved chunks under each answer")
	return cmd
}

func createStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Print document statistics and summary",
		Long:  "Extract and chunk a document and print its statistics and extractive summary. No model is called.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger.Init(os.Stderr, debug || cfg.Log.Debug)

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			ch, err := newChunker(cfg.Chunker)
			if err != nil {
				return err
			}
			sum, err := newSummarizer(cfg.Summarizer)
			if err != nil {
				return err
			}

			text, err := extract.New().Extract(context.Background(), doc)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return domain.E(domain.KindEmptyDocument, "stats", fmt.Errorf("no text extracted from %s", doc.Name))
			}
			chunks, err := ch.Split(text)
			if err != nil {
				return err
			}
			loaded := &service.LoadedDocument{
				Name:  doc.Name,
				Type:  doc.Type,
				Stats: service.ComputeStats(text, len(chunks)),
			}
			if loaded.Summary, err = sum.Summarize(text, cfg.Summarizer.MaxSentences); err != nil {
				logger.Warn("summary of %s failed: %v", doc.Name, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatStats(loaded))
			if loaded.Summary != "" {
				fmt.Fprintf(out, "\nSummary:\n%s\n", loaded.Summary)
			}
			return nil
		},
	}
}

func createConfigCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := config.DefaultUserConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func readDocument(path string) (domain.Document, error) {
	typ, err := extract.DetectType(path)
	if err != nil {
		return domain.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.Document{Name: filepath.Base(path), Type: typ, Data: data}, nil
}

func formatStats(d *service.LoadedDocument) string {
	s := d.Stats
	return fmt.Sprintf("%s · %d characters · %d words · %d chunks · avg %d chars/chunk",
		d.Name, s.Characters, s.Words, s.Chunks, s.AvgChunkSize)
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
