package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

const maxSuggestions = 3

// entry is an indexed artifact; the blueprint is decoded on first use
type entry struct {
	name         string
	source       string
	artifactPath string
	artifact     *models.Artifact
	blueprint    *models.Blueprint
}

func (e *entry) key() string {
	return fmt.Sprintf("%s:%s", e.source, e.name)
}

// Repository indexes Foundry artifacts and resolves blueprint names against them
type Repository struct {
	projectRoot string
	outDir      string
	skipBuild   bool
	selector    usecase.ContractSelector
	log         *slog.Logger

	mu      sync.RWMutex
	indexed bool
	entries map[string]*entry   // key: "path:Name"
	byName  map[string][]*entry // key: contract name
}

// NewRepository creates a new artifact repository. selector may be nil in
// non-interactive runs, in which case ambiguous names are an error.
func NewRepository(cfg *config.RuntimeConfig, selector usecase.ContractSelector, log *slog.Logger) *Repository {
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = cfg.FoundryConfig.OutDir("default")
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(cfg.ProjectRoot, outDir)
	}

	return &Repository{
		projectRoot: cfg.ProjectRoot,
		outDir:      outDir,
		skipBuild:   cfg.SkipBuild,
		selector:    selector,
		log:         log.With("component", "contracts"),
		entries:     make(map[string]*entry),
		byName:      make(map[string][]*entry),
	}
}

// Index builds the project (unless skipped) and loads every artifact under out/
func (r *Repository) Index(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}

	r.entries = make(map[string]*entry)
	r.byName = make(map[string][]*entry)

	if !r.skipBuild {
		if err := r.runForgeBuild(ctx); err != nil {
			return fmt.Errorf("failed to build contracts: %w", err)
		}
	}

	if _, err := os.Stat(r.outDir); os.IsNotExist(err) {
		return fmt.Errorf("artifacts directory %s not found, run forge build first", r.outDir)
	}

	err := filepath.Walk(r.outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		return r.processArtifact(path)
	})
	if err != nil {
		return err
	}

	r.indexed = true
	r.log.Debug("indexed artifacts", "dir", r.outDir, "count", len(r.entries))
	return nil
}

func (r *Repository) runForgeBuild(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "forge", "build", "--extra-output", "storageLayout")
	cmd.Dir = r.projectRoot

	r.log.Debug("running forge build", "dir", r.projectRoot)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("forge build failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

func (r *Repository) processArtifact(artifactPath string) error {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return err
	}

	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		r.log.Debug("skipping unreadable artifact", "path", artifactPath, "error", err)
		return nil
	}

	// Interfaces and abstract contracts have no creation code
	if artifact.Bytecode.Object == "" || artifact.Bytecode.Object == "0x" {
		return nil
	}

	var name, source string
	for src, contract := range artifact.Metadata.Settings.CompilationTarget {
		source, name = src, contract
	}
	if name == "" {
		// Artifacts without metadata are named after their file
		name = strings.TrimSuffix(filepath.Base(artifactPath), ".json")
		source = filepath.Base(filepath.Dir(artifactPath))
	}

	relPath, _ := filepath.Rel(r.projectRoot, artifactPath)
	e := &entry{name: name, source: source, artifactPath: relPath, artifact: &artifact}

	r.entries[e.key()] = e
	r.byName[name] = append(r.byName[name], e)
	return nil
}

// Resolve accepts "Contract" or "path/to/File.sol:Contract"
func (r *Repository) Resolve(ctx context.Context, name string) (*models.Blueprint, error) {
	if err := r.Index(ctx); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	e, err := r.lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e.blueprint == nil {
		bp, err := toBlueprint(e)
		if err != nil {
			return nil, &domain.ResolutionError{Name: name, Err: err}
		}
		e.blueprint = bp
	}
	return e.blueprint, nil
}

func (r *Repository) lookup(ctx context.Context, name string) (*entry, error) {
	r.mu.RLock()
	if strings.Contains(name, ":") {
		e, ok := r.entries[name]
		keys := lo.Keys(r.entries)
		r.mu.RUnlock()
		if !ok {
			return nil, &domain.ResolutionError{Name: name, Suggestions: suggest(name, keys), Err: domain.ErrContractNotFound}
		}
		return e, nil
	}

	candidates := r.byName[name]
	names := lo.Keys(r.byName)
	r.mu.RUnlock()

	switch len(candidates) {
	case 0:
		return nil, &domain.ResolutionError{Name: name, Suggestions: suggest(name, names), Err: domain.ErrContractNotFound}
	case 1:
		return candidates[0], nil
	}

	sorted := lo.Map(candidates, func(e *entry, _ int) string { return e.key() })
	sort.Strings(sorted)

	if r.selector == nil {
		return nil, &domain.ResolutionError{Name: name, Suggestions: sorted, Err: domain.ErrAmbiguousContract}
	}

	choices := make([]*models.Blueprint, 0, len(candidates))
	for _, key := range sorted {
		choices = append(choices, &models.Blueprint{Name: name, Path: r.entries[key].source})
	}
	chosen, err := r.selector.SelectContract(ctx, choices, fmt.Sprintf("Multiple contracts named %s, select one", name))
	if err != nil {
		return nil, &domain.ResolutionError{Name: name, Suggestions: sorted, Err: fmt.Errorf("%w: %v", domain.ErrAmbiguousContract, err)}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[chosen.Artifact()], nil
}

// FindByDeployedCode returns the blueprint whose runtime code matches code,
// ignoring immutable ranges. It returns nil when nothing matches.
func (r *Repository) FindByDeployedCode(ctx context.Context, code []byte) (*models.Blueprint, error) {
	if err := r.Index(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := lo.Keys(r.entries)
	sort.Strings(keys)
	for _, key := range keys {
		e := r.entries[key]
		if e.blueprint == nil {
			bp, err := toBlueprint(e)
			if err != nil {
				continue
			}
			e.blueprint = bp
		}
		if e.blueprint.MatchesDeployedCode(code) {
			return e.blueprint, nil
		}
	}
	return nil, nil
}

func toBlueprint(e *entry) (*models.Blueprint, error) {
	a := e.artifact
	if strings.Contains(a.Bytecode.Object, "__$") || len(a.Bytecode.LinkReferences) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnlinkedBytecode, e.key())
	}

	parsed, err := abi.JSON(strings.NewReader(string(a.ABI)))
	if err != nil {
		return nil, fmt.Errorf("invalid ABI in %s: %w", e.artifactPath, err)
	}

	bytecode, err := decodeHex(a.Bytecode.Object)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode in %s: %w", e.artifactPath, err)
	}
	deployed, err := decodeHex(a.DeployedBytecode.Object)
	if err != nil {
		return nil, fmt.Errorf("invalid deployed bytecode in %s: %w", e.artifactPath, err)
	}

	return &models.Blueprint{
		Name:                e.name,
		Path:                e.source,
		ArtifactPath:        e.artifactPath,
		CompilerVersion:     a.Metadata.Compiler.Version,
		ABI:                 parsed,
		Bytecode:            bytecode,
		DeployedBytecode:    deployed,
		ImmutableReferences: lo.Flatten(lo.Values(a.DeployedBytecode.ImmutableReferences)),
		StorageLayout:       a.StorageLayout,
	}, nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

// suggest returns the closest names by fuzzy rank
func suggest(name string, candidates []string) []string {
	sort.Strings(candidates)
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		lower := strings.ToLower(name)
		return lo.Slice(lo.Filter(candidates, func(c string, _ int) bool {
			return strings.Contains(strings.ToLower(c), lower)
		}), 0, maxSuggestions)
	}
	sort.Stable(matches)
	return lo.Slice(lo.Map(matches, func(m fuzzy.Match, _ int) string { return m.Str }), 0, maxSuggestions)
}

var _ usecase.BlueprintResolver = (*Repository)(nil)
