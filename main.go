// Command llamedit is a minimal terminal host for the llamedit provider: it
// streams chat completions from a configured llama.cpp endpoint and saves the
// conversation transcript. Editor integrations embed the packages directly;
// this binary exists for configuration checks and quick manual sessions.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"llamedit/config"
	"llamedit/model"
	"llamedit/provider"
	"llamedit/rules"
	"llamedit/session"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	config.InitDebugLog(cfg.DataDir())

	ruleSet, err := rules.Load(rules.DefaultDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load project rules: %v\n", err)
	}

	store := session.NewThinkingStore()
	prov, err := provider.NewProvider(cfg, ruleSet, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	transcripts, err := session.NewStorage(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize transcript storage: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "models":
			listModels(prov)
			return
		case "ping":
			ping(prov)
			return
		case "version":
			fmt.Println("llamedit", Version)
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command %q (expected: models, ping, version)\n", os.Args[1])
			os.Exit(1)
		}
	}

	repl(prov, transcripts)
}

func listModels(prov *provider.LlamaProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	models, err := prov.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(models) == 0 {
		fmt.Println("No models available.")
		return
	}
	for _, m := range models {
		line := m.Ref()
		if m.Status != "" {
			line += "  (" + m.Status + ")"
		}
		if m.ContextSize > 0 {
			line += fmt.Sprintf("  ctx=%d", m.ContextSize)
		}
		if m.Embeddings {
			line += "  [embeddings]"
		}
		fmt.Println(line)
	}
}

func ping(prov *provider.LlamaProvider) {
	if err := prov.Ping(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func repl(prov *provider.LlamaProvider, transcripts *session.Storage) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("llamedit %s - chatting with %s (Ctrl-D to quit)\n", Version, prov.GetDisplayName())

	transcript := &session.Transcript{Model: prov.GetModel()}
	var messages []model.Message

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		messages = append(messages, model.NewTextMessage(model.RoleUser, input))
		transcript.Entries = append(transcript.Entries, session.Entry{
			Role:      string(model.RoleUser),
			Content:   input,
			Timestamp: time.Now(),
		})

		var reply strings.Builder
		err := prov.Chat(ctx, messages, func(chunk string, toolCalls []model.ToolCall) error {
			if chunk != "" {
				fmt.Print(chunk)
				reply.WriteString(chunk)
			}
			for _, call := range toolCalls {
				fmt.Printf("\n[tool call: %s]\n", call.Name)
			}
			return nil
		})
		fmt.Println()

		if err != nil {
			if ctx.Err() != nil {
				break
			}
			// The callback already surfaced the error text; keep the session
			// alive so a transient failure does not lose the conversation.
			continue
		}

		if text := reply.String(); text != "" {
			messages = append(messages, model.NewTextMessage(model.RoleAssistant, text))
			transcript.Entries = append(transcript.Entries, session.Entry{
				Role:      string(model.RoleAssistant),
				Content:   text,
				Timestamp: time.Now(),
			})
		}

		if err := transcripts.Save(transcript); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save transcript: %v\n", err)
		}
	}

	fmt.Println("Bye.")
}
