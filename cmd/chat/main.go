// Command chat is an interactive terminal conversation with the configured Gemini model.
// Every prompt carries the full "User:/AI:" history. Type "quit" to exit.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/onnwee/youwin/config"
	"github.com/onnwee/youwin/llm"
	"github.com/onnwee/youwin/telemetry"
)

func main() {
	_ = godotenv.Load()
	telemetry.SetupLogging(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	model := pflag.String("model", cfg.GeminiModel, "Gemini model name")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gemini, err := llm.NewGemini(ctx, llm.GeminiOptions{APIKey: cfg.GeminiAPIKey, Model: *model, Temperature: cfg.GeminiTemperature})
	if err != nil {
		slog.Error("failed to create gemini client", slog.Any("err", err))
		os.Exit(1)
	}
	if err := run(ctx, os.Stdin, os.Stdout, llm.NewConversation(gemini)); err != nil {
		slog.Error("chat ended with error", slog.Any("err", err))
		os.Exit(1)
	}
}

// run reads one line per turn from in until "quit", EOF or cancellation. Generation errors
// are printed and the loop continues.
func run(ctx context.Context, in io.Reader, out io.Writer, conv *llm.Conversation) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "User: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "quit"):
			return nil
		}
		reply, err := conv.Send(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "AI: %s\n", reply)
	}
}
