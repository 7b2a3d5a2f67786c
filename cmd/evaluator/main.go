package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/internal/evaluation"
	"github.com/noah-isme/skillbridge-matcher/internal/matching"
	"github.com/noah-isme/skillbridge-matcher/pkg/export"
	"github.com/noah-isme/skillbridge-matcher/pkg/logger"
)

type options struct {
	usersPath    string
	labelsPath   string
	k            int
	minScore     float64
	vecThreshold float64
	provider     string
	embeddingURL string
	reportPath   string
	logLevel     string
	timeout      time.Duration
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "evaluator:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("evaluator", flag.ContinueOnError)
	fs.StringVar(&opts.usersPath, "users", "data/users.json", "Path to the users JSON file")
	fs.StringVar(&opts.labelsPath, "ground-truth", "data/ground_truth.json", "Path to the labeled pairs JSON file")
	fs.IntVar(&opts.k, "k", 5, "Number of top ranked pairs to score; k <= 0 scores 0")
	fs.Float64Var(&opts.minScore, "min-score", evaluation.DefaultMinScore, "Minimum label score counted as a good pair")
	fs.Float64Var(&opts.vecThreshold, "vec-threshold", matching.DefaultPolicy().SimilarityThreshold, "Similarity floor for the semantic strategy")
	fs.StringVar(&opts.provider, "provider", embedding.ProviderHashing, "Embedding provider: lexical, hashing or http")
	fs.StringVar(&opts.embeddingURL, "embedding-url", "", "Endpoint for the http embedding provider")
	fs.StringVar(&opts.reportPath, "report", "", "Optional .csv or .pdf report output path")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall evaluation timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	logr, err := logger.NewCLI(opts.logLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	users, err := evaluation.LoadUsers(opts.usersPath)
	if err != nil {
		return err
	}
	labels, err := evaluation.LoadLabels(opts.labelsPath)
	if err != nil {
		return err
	}
	good := evaluation.GoodPairs(labels, opts.minScore)
	logr.Info("evaluation inputs loaded", zap.Int("users", len(users)), zap.Int("labels", len(labels)), zap.Int("good_pairs", len(good)))

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	policy := matching.DefaultPolicy()
	policy.SimilarityThreshold = opts.vecThreshold
	evaluator := evaluation.NewEvaluator(matching.NewEngine(logr), good, opts.k, logr)

	strategies := []matching.Strategy{matching.NewLexicalStrategy(policy)}
	provider, err := embedding.New(embedding.Config{Provider: opts.provider, URL: opts.embeddingURL}, nil, logr)
	if err != nil {
		logr.Warn("embedding provider unavailable", zap.Error(err))
		fmt.Fprintf(out, "semantic: skipped (%v)\n", err)
	} else {
		strategies = append(strategies, matching.NewSemanticStrategy(policy, provider))
	}

	reports := make([]evaluation.Report, 0, len(strategies))
	for _, strategy := range strategies {
		report, err := evaluator.Evaluate(ctx, users, strategy)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		if report.Skipped {
			fmt.Fprintf(out, "%s: skipped (%s)\n", report.Strategy, report.Reason)
			continue
		}
		fmt.Fprintf(out, "%s precision@%d: %.3f (%d/%d hits, %d pairs)\n",
			report.Strategy, report.K, report.Precision, report.Hits, report.K, len(report.Pairs))
	}

	if opts.reportPath != "" {
		if err := export.WriteFile(opts.reportPath, reportDataset(reports, opts)); err != nil {
			return err
		}
		fmt.Fprintf(out, "report written to %s\n", opts.reportPath)
	}
	return nil
}

func reportDataset(reports []evaluation.Report, opts options) export.Dataset {
	data := export.Dataset{
		Title: "Skill exchange matching evaluation",
		Notes: []string{
			fmt.Sprintf("k=%d, min label score=%g, similarity threshold=%g, provider=%s", opts.k, opts.minScore, opts.vecThreshold, opts.provider),
		},
		Headers: []string{"Strategy", "Rank", "User A", "User B", "Weight", "Precision@k"},
	}
	for _, r := range reports {
		if r.Skipped {
			data.Rows = append(data.Rows, []string{r.Strategy, "-", "-", "-", "-", "skipped"})
			continue
		}
		precision := strconv.FormatFloat(r.Precision, 'f', 3, 64)
		if len(r.Pairs) == 0 {
			data.Rows = append(data.Rows, []string{r.Strategy, "-", "-", "-", "-", precision})
		}
		for i, p := range r.Pairs {
			if i >= r.K {
				break
			}
			data.Rows = append(data.Rows, []string{
				r.Strategy,
				strconv.Itoa(i + 1),
				p.UserA,
				p.UserB,
				strconv.FormatFloat(p.Weight, 'f', 2, 64),
				precision,
			})
		}
	}
	return data
}
