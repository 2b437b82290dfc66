// Package agoracli implements the agora command: journal seeding,
// replay verification, and ledger statistics.
package agoracli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/opencivics/agora/internal/ledger/projection"
	"github.com/opencivics/agora/internal/ledger/rules"
	"github.com/opencivics/agora/internal/ledger/service"
	"github.com/opencivics/agora/internal/platform/config"
	"github.com/opencivics/agora/internal/storage/sqlite"
)

// Config holds agora command configuration.
type Config struct {
	Command string

	DBPath     string        `env:"AGORA_DB_PATH" envDefault:"agora.db"`
	Timeout    time.Duration `env:"AGORA_CLI_TIMEOUT" envDefault:"2m"`
	JSONOutput bool
}

// ParseConfig parses environment and flags into a Config. The first
// positional argument selects the subcommand.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to ledger sqlite database (default: AGORA_DB_PATH or agora.db)")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON reports")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Command = fs.Arg(0)
	if cfg.Command == "" {
		return Config{}, errors.New("usage: agora [flags] seed|verify|stats")
	}
	return cfg, nil
}

// Run executes the agora command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", cfg.DBPath, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(errOut, "close journal: %v\n", err)
		}
	}()

	switch cfg.Command {
	case "seed":
		return runSeed(ctx, cfg, store, out)
	case "verify":
		return runVerify(ctx, cfg, store, out)
	case "stats":
		return runStats(ctx, cfg, store, out)
	default:
		return fmt.Errorf("unknown command %q (want seed, verify, or stats)", cfg.Command)
	}
}

func runSeed(ctx context.Context, cfg Config, store *sqlite.Store, out io.Writer) error {
	ledger, err := service.Open(ctx, store)
	if err != nil {
		return err
	}
	p, err := ledger.SeedFoundingProposal(ctx)
	if err != nil {
		return fmt.Errorf("seed founding proposal: %w", err)
	}
	if cfg.JSONOutput {
		return json.NewEncoder(out).Encode(map[string]any{
			"proposal_id": p.ID,
			"title":       p.Title,
			"scope":       p.Scope,
		})
	}
	fmt.Fprintf(out, "founding proposal %s (%q) at scope %s\n", p.ID, p.Title, p.Scope)
	return nil
}

// runVerify replays the journal twice from empty state and compares the
// results, and checks that sequence numbers are gapless. Any divergence
// means the journal and the fold rules disagree.
func runVerify(ctx context.Context, cfg Config, store *sqlite.Store, out io.Writer) error {
	first := rules.NewState()
	firstSeq, err := projection.Replay(ctx, store, first, 0)
	if err != nil {
		return fmt.Errorf("first replay: %w", err)
	}

	second := rules.NewState()
	secondSeq, err := projection.Replay(ctx, store, second, 0)
	if err != nil {
		return fmt.Errorf("second replay: %w", err)
	}

	if firstSeq != secondSeq {
		return fmt.Errorf("replay depth diverged: %d vs %d", firstSeq, secondSeq)
	}
	if !first.Equal(second) {
		return errors.New("replay produced diverging states")
	}
	latest, err := store.LatestSeq(ctx)
	if err != nil {
		return fmt.Errorf("latest seq: %w", err)
	}
	if latest != firstSeq {
		return fmt.Errorf("journal has gaps: latest seq %d, replayed %d events", latest, firstSeq)
	}

	if cfg.JSONOutput {
		return json.NewEncoder(out).Encode(map[string]any{
			"events":     firstSeq,
			"consistent": true,
		})
	}
	fmt.Fprintf(out, "journal consistent: %d events, replay deterministic, sequence gapless\n", firstSeq)
	return nil
}

func runStats(ctx context.Context, cfg Config, store *sqlite.Store, out io.Writer) error {
	ledger, err := service.Open(ctx, store)
	if err != nil {
		return err
	}
	st, err := ledger.Stats(ctx)
	if err != nil {
		return err
	}
	latest, err := store.LatestSeq(ctx)
	if err != nil {
		return fmt.Errorf("latest seq: %w", err)
	}

	if cfg.JSONOutput {
		return json.NewEncoder(out).Encode(map[string]any{
			"events":          latest,
			"users":           st.Users,
			"proposals":       st.Proposals,
			"comments":        st.Comments,
			"delegations":     st.Delegations,
			"total_acents":    st.TotalAcents.String(),
			"total_dcents":    st.TotalDcents.String(),
			"escrowed_acents": st.EscrowedAcents.String(),
		})
	}
	fmt.Fprintf(out, "events:          %d\n", latest)
	fmt.Fprintf(out, "users:           %d\n", st.Users)
	fmt.Fprintf(out, "proposals:       %d\n", st.Proposals)
	fmt.Fprintf(out, "comments:        %d\n", st.Comments)
	fmt.Fprintf(out, "delegations:     %d\n", st.Delegations)
	fmt.Fprintf(out, "total acents:    %s\n", st.TotalAcents)
	fmt.Fprintf(out, "total dcents:    %s\n", st.TotalDcents)
	fmt.Fprintf(out, "escrowed acents: %s\n", st.EscrowedAcents)
	return nil
}
