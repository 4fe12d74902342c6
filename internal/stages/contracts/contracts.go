package contracts

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// StageName identifies the contract transparency stage in the run context.
const StageName = "contract_transparency"

// Royalty benchmark used for the fair-value gap calculation (NRGI).
const BenchmarkRoyaltyPct = 8.0

// Contract is one tracked mining agreement.
type Contract struct {
	Country        string  `yaml:"country" json:"country"`
	Mine           string  `yaml:"mine" json:"mine"`
	Operator       string  `yaml:"operator" json:"operator"`
	RoyaltyRatePct float64 `yaml:"royalty_rate_pct" json:"royalty_rate_pct"`
	ProductionKoz  float64 `yaml:"production_koz" json:"production_koz"`
	// Status is one of: stable, renegotiating, renegotiated, nationalised.
	Status string `yaml:"status" json:"status"`
	Note   string `yaml:"note,omitempty" json:"note,omitempty"`
}

// ShadowEstimate covers undeclared artisanal output, in tonnes per year.
type ShadowEstimate struct {
	IllicitLowTonnes  float64 `yaml:"illicit_low_tonnes" json:"illicit_low_tonnes"`
	IllicitMidTonnes  float64 `yaml:"illicit_mid_tonnes" json:"illicit_mid_tonnes"`
	IllicitHighTonnes float64 `yaml:"illicit_high_tonnes" json:"illicit_high_tonnes"`
}

type dataset struct {
	Contracts []Contract     `yaml:"contracts"`
	Shadow    ShadowEstimate `yaml:"shadow"`
}

// Data is the contracts stage payload. Royalty math against the live spot
// price happens in synthesis.
type Data struct {
	Contracts []Contract
	Shadow    ShadowEstimate
	SyncedAt  time.Time
}

// Alerts returns the contracts in an active resource-nationalism state.
func (d *Data) Alerts() []Contract {
	var alerts []Contract
	for _, c := range d.Contracts {
		switch c.Status {
		case "nationalised", "renegotiated", "renegotiating":
			alerts = append(alerts, c)
		}
	}
	return alerts
}

//go:embed dataset.yaml
var embeddedDataset []byte

// Stage syncs the mining-contracts dataset from its git repository and
// parses it. The dataset refreshes independently of run cadence; an
// unreachable remote degrades to the last synced copy, and a never-synced
// deployment falls back to the embedded snapshot.
type Stage struct {
	cfg     config.ContractsConfig
	log     *logger.Logger
	timeout time.Duration
}

// New creates the contracts stage.
func New(cfg config.ContractsConfig, log *logger.Logger, timeout time.Duration) *Stage {
	return &Stage{cfg: cfg, log: log, timeout: timeout}
}

func (s *Stage) Name() string           { return StageName }
func (s *Stage) Requires() []string     { return nil }
func (s *Stage) Uses() []string         { return nil }
func (s *Stage) Timeout() time.Duration { return s.timeout }

func (s *Stage) Run(ctx context.Context, _ model.Results) (any, error) {
	raw, syncedAt, err := s.loadDataset(ctx)
	if err != nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryDataUnavailable, err)
	}

	var parsed dataset
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryDataUnavailable,
			fmt.Errorf("malformed contracts dataset: %w", err))
	}
	if len(parsed.Contracts) == 0 {
		return nil, briefingerrors.NewStageError(StageName, briefingerrors.CategoryDataUnavailable,
			errors.New("contracts dataset is empty"))
	}

	return &Data{Contracts: parsed.Contracts, Shadow: parsed.Shadow, SyncedAt: syncedAt}, nil
}

func (s *Stage) loadDataset(ctx context.Context) ([]byte, time.Time, error) {
	if s.cfg.RepoURL == "" {
		return embeddedDataset, time.Time{}, nil
	}

	if err := s.sync(ctx); err != nil {
		s.log.Error(err, "contracts dataset sync failed, using last synced copy")
	}

	path := filepath.Join(s.cfg.Dir, "contracts.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Never synced and remote unreachable: ship the embedded snapshot.
			return embeddedDataset, time.Time{}, nil
		}
		return nil, time.Time{}, err
	}

	info, statErr := os.Stat(path)
	syncedAt := time.Time{}
	if statErr == nil {
		syncedAt = info.ModTime()
	}
	return raw, syncedAt, nil
}

// sync clones the dataset repository on first run and pulls afterwards.
func (s *Stage) sync(ctx context.Context) error {
	branch := plumbing.NewBranchReferenceName(s.cfg.Branch)

	repo, err := git.PlainOpen(s.cfg.Dir)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			return err
		}
		_, cloneErr := git.PlainCloneContext(ctx, s.cfg.Dir, false, &git.CloneOptions{
			URL:           s.cfg.RepoURL,
			ReferenceName: branch,
			SingleBranch:  true,
			Depth:         1,
		})
		return cloneErr
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = worktree.PullContext(ctx, &git.PullOptions{
		ReferenceName: branch,
		SingleBranch:  true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}
