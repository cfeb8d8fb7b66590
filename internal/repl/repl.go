// Package repl provides the interactive shell for kairos. Free-text
// input is classified and dispatched to topic search or crawl; a small
// set of built-in commands covers session introspection.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/TianxingChang/Kairos-sub000/internal/curator"
	"github.com/TianxingChang/Kairos-sub000/internal/types"
)

// REPL represents the interactive shell
type REPL struct {
	cur      *curator.Curator
	rl       *readline.Instance
	ctx      context.Context
	out      io.Writer
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Curator *curator.Curator

	// Out receives all shell output; defaults to stdout.
	Out io.Writer
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Curator == nil {
		return nil, fmt.Errorf("curator is required")
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	r := &REPL{
		cur:      cfg.Curator,
		out:      out,
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("kairos> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.ProcessInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
	}
}

// ProcessInput handles a single line of input: built-in commands first,
// everything else goes through intent classification.
func (r *REPL) ProcessInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	if handler, ok := r.commands[parts[0]]; ok {
		return handler(parts[1:])
	}
	return r.dispatch(line)
}

// dispatch classifies free-text input and runs the matching operation.
func (r *REPL) dispatch(line string) error {
	cmd := r.cur.Classify(line)

	if cmd.NeedsClarification() {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(r.out, "%s I'm not sure what you want (confidence %.2f).\n",
			yellow("?"), cmd.Confidence)
		for _, part := range cmd.AmbiguousParts {
			fmt.Fprintf(r.out, "  - %s\n", part)
		}
		fmt.Fprintln(r.out, "Try something like 'find rust tutorials' or 'crawl https://example.com/post'.")
		return nil
	}

	switch cmd.Intent {
	case types.IntentTopicSearch:
		return r.runSearch(cmd.Topic)
	case types.IntentURLCrawl:
		return r.runCrawl(cmd.URL)
	default:
		return fmt.Errorf("unhandled intent %s", cmd.Intent)
	}
}

func (r *REPL) runSearch(topic string) error {
	fmt.Fprintf(r.out, "Searching for %q...\n", topic)
	result, err := r.cur.SearchTopic(r.ctx, topic)
	if err != nil {
		return err
	}

	if len(result.Resources) == 0 {
		fmt.Fprintln(r.out, "No resources found.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	for i, res := range result.Resources {
		fmt.Fprintf(r.out, "%2d. %s\n", i+1, green(res.Title))
		fmt.Fprintf(r.out, "    %s\n", res.URL)
		fmt.Fprintf(r.out, "    type=%s relevance=%.2f quality=%.2f\n",
			res.ContentType, res.RelevanceScore, res.EstimatedQuality)
	}
	fmt.Fprintf(r.out, "\n%d resources from %d hits (%d queries)\n",
		len(result.Resources), result.Metadata.TotalHits, len(result.Metadata.Queries))
	return nil
}

func (r *REPL) runCrawl(url string) error {
	fmt.Fprintf(r.out, "Crawling %s...\n", url)
	job, err := r.cur.Crawl(r.ctx, url)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "%s job %s fetched %d bytes\n",
		green("Done:"), job.ID, len(job.Content.Data))
	return nil
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
	r.commands["health"] = r.cmdHealth
	r.commands["jobs"] = r.cmdJobs
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("Welcome to Kairos"))
	fmt.Fprintln(r.out, "Content discovery and curation shell")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Type what you want in plain English, 'help' for commands, 'exit' to quit")
	fmt.Fprintln(r.out)
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"help, ?", "Show this help message"},
		{"health", "Show backend connection and rate-limit status"},
		{"jobs", "List crawl jobs from this session"},
		{"exit, quit", "Exit the shell"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %-12s %s\n", green(cmd.name), cmd.desc)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Anything else is treated as a request:")
	fmt.Fprintln(r.out, "  'find python tutorials'")
	fmt.Fprintln(r.out, "  'learn about distributed systems'")
	fmt.Fprintln(r.out, "  'crawl https://example.com/article'")
	fmt.Fprintln(r.out)
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	return io.EOF
}

func (r *REPL) cmdHealth(args []string) error {
	status, err := r.cur.Health(r.ctx)
	if err != nil {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(r.out, "%s backend probe failed: %v\n", yellow("Warning:"), err)
	}

	fmt.Fprintf(r.out, "State:      %s\n", status.State)
	fmt.Fprintf(r.out, "Healthy:    %t\n", status.Healthy)
	if !status.LastCheck.IsZero() {
		fmt.Fprintf(r.out, "Last check: %s\n", status.LastCheck.Format("15:04:05"))
	}
	w := status.RateLimit
	if !w.WindowStart.IsZero() {
		fmt.Fprintf(r.out, "Rate limit: %d used, %d remaining\n", w.RequestsMade, w.RequestsRemaining)
	}
	return nil
}

func (r *REPL) cmdJobs(args []string) error {
	jobs := r.cur.Jobs()
	if len(jobs) == 0 {
		fmt.Fprintln(r.out, "No crawl jobs this session.")
		return nil
	}
	for _, job := range jobs {
		fmt.Fprintf(r.out, "%s  %-9s  %s\n", job.ID, job.State, job.URL)
		if job.Error != "" {
			fmt.Fprintf(r.out, "  error: %s\n", job.Error)
		}
	}
	return nil
}
