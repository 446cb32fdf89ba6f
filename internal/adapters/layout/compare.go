package layout

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

// Rename is a variable that kept its placement but changed its name
type Rename struct {
	Slot string
	From string
	To   string
}

// Report describes an accepted layout change
type Report struct {
	Renamed  []Rename
	Appended []string
}

// Compare checks that next keeps every variable of current at the same slot,
// offset and type. Variables may only be appended. Renames are reported, not
// rejected.
func Compare(current, next *models.StorageLayout) (*Report, error) {
	report := &Report{}
	if current == nil || next == nil {
		return report, nil
	}

	var result *multierror.Error
	for i, old := range current.Storage {
		if i >= len(next.Storage) {
			result = multierror.Append(result, fmt.Errorf("variable %q at slot %s was removed", old.Label, old.Slot))
			continue
		}
		cur := next.Storage[i]

		if cur.Slot != old.Slot || cur.Offset != old.Offset {
			result = multierror.Append(result, fmt.Errorf("variable %q moved from slot %s offset %d to slot %s offset %d",
				old.Label, old.Slot, old.Offset, cur.Slot, cur.Offset))
			continue
		}

		oldType, newType := current.TypeLabel(old.Type), next.TypeLabel(cur.Type)
		if oldType != newType {
			result = multierror.Append(result, fmt.Errorf("variable %q at slot %s changed type from %s to %s",
				old.Label, old.Slot, oldType, newType))
			continue
		}

		if old.Label != cur.Label {
			report.Renamed = append(report.Renamed, Rename{Slot: old.Slot, From: old.Label, To: cur.Label})
		}
	}

	for _, added := range next.Storage[min(len(current.Storage), len(next.Storage)):] {
		report.Appended = append(report.Appended, added.Label)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIncompatibleStorageLayout, err)
	}
	return report, nil
}
