package attack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/doublespend/business/sys/validate"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database/storage"
)

// Set of chain snapshots kept for a scenario.
const (
	SideHonest   = "honest"
	SideAttacker = "attacker"
)

// Archive stores completed scenarios on disk. Every scenario gets a folder
// holding the scenario record and one folder per chain snapshot with a file
// per block.
type Archive struct {
	root string
}

// NewArchive constructs an archive rooted at the specified folder.
func NewArchive(root string) (*Archive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}

	return &Archive{root: root}, nil
}

// Save writes the scenario and both chain snapshots.
func (a *Archive) Save(s Scenario) error {
	sides := map[string][]database.BlockData{
		SideHonest:   s.HonestChain,
		SideAttacker: s.AttackerChain,
	}

	for side, blocks := range sides {
		disk, err := storage.NewDisk(filepath.Join(a.root, s.ID, side))
		if err != nil {
			return err
		}

		if err := disk.WriteChain(blocks); err != nil {
			return fmt.Errorf("archive %s chain: %w", side, err)
		}
	}

	// The record is written without the snapshots, they live in the
	// block files.
	record := s
	record.HonestChain = nil
	record.AttackerChain = nil

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(a.root, s.ID, "scenario.json"), data, 0600)
}

// Load reads a scenario back, validating both chain snapshots against the
// genesis of the run. The id must be a scenario id.
func (a *Archive) Load(id string) (Scenario, error) {
	if err := validate.CheckID(id); err != nil {
		return Scenario{}, err
	}

	data, err := os.ReadFile(filepath.Join(a.root, id, "scenario.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Scenario{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Scenario{}, err
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario %s: %w", id, err)
	}

	for _, side := range []string{SideHonest, SideAttacker} {
		disk, err := storage.NewDisk(filepath.Join(a.root, id, side))
		if err != nil {
			return Scenario{}, err
		}

		blocks, err := disk.ReadChain()
		if err != nil {
			return Scenario{}, fmt.Errorf("read %s chain: %w", side, err)
		}

		if _, err := database.FromData(s.Config.Genesis(), blocks, nil); err != nil {
			return Scenario{}, fmt.Errorf("%s chain: %w", side, err)
		}

		switch side {
		case SideHonest:
			s.HonestChain = blocks
		case SideAttacker:
			s.AttackerChain = blocks
		}
	}

	return s, nil
}
