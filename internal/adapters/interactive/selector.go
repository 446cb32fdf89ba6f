package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// ErrNonInteractive is returned when a prompt would be needed in non-interactive mode
var ErrNonInteractive = errors.New("interactive prompt not available in non-interactive mode")

// SelectorAdapter handles interactive selection and confirmation
type SelectorAdapter struct {
	nonInteractive bool
	yes            bool

	selectFn  func(prompt promptui.Select) (int, error)
	confirmFn func(prompt promptui.Prompt) error
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{
		nonInteractive: cfg.NonInteractive,
		yes:            cfg.Yes,
		selectFn: func(prompt promptui.Select) (int, error) {
			index, _, err := prompt.Run()
			return index, err
		},
		confirmFn: func(prompt promptui.Prompt) error {
			_, err := prompt.Run()
			return err
		},
	}
}

// SelectContract selects a blueprint among artifacts sharing a name
func (s *SelectorAdapter) SelectContract(ctx context.Context, candidates []*models.Blueprint, prompt string) (*models.Blueprint, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no contracts provided for selection")
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if s.nonInteractive {
		return nil, ErrNonInteractive
	}

	options := formatContractOptions(candidates)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	index, err := s.selectFn(promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	})
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return candidates[index], nil
}

// Confirm asks a yes/no question. --yes answers it; non-interactive runs without --yes fail.
func (s *SelectorAdapter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if s.yes {
		return true, nil
	}
	if s.nonInteractive {
		return false, fmt.Errorf("%w: pass --yes to confirm %q", ErrNonInteractive, prompt)
	}

	err := s.confirmFn(promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	})
	if err == nil {
		return true, nil
	}
	// promptui reports "n" and an empty answer as ErrAbort
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	return false, err
}

// formatContractOptions renders "Name (path/to/File.sol)"
func formatContractOptions(candidates []*models.Blueprint) []string {
	options := make([]string, len(candidates))
	for i, bp := range candidates {
		name := color.New(color.FgWhite, color.Bold).Sprint(bp.Name)
		path := color.New(color.FgBlue).Sprint(bp.Path)
		options[i] = fmt.Sprintf("%s (%s)", name, path)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var (
	_ usecase.ContractSelector = (*SelectorAdapter)(nil)
	_ usecase.Confirmer        = (*SelectorAdapter)(nil)
)
