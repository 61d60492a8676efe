// Package storage handles the lower level support for reading and writing
// chain snapshots to disk, one file per block.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// ErrEndOfChain is returned by the iterator once every block was read.
var ErrEndOfChain = errors.New("end of chain")

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk.
type Disk struct {
	dbPath string
}

// NewDisk constructs a Disk value for use, creating the folder.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Write takes the specified block and stores it on disk in a file labeled
// with the block number. An existing file for the number is replaced.
func (d *Disk) Write(blockData database.BlockData) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(blockData, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(d.getPath(blockData.Header.Number), data, 0600)
}

// WriteChain replaces the stored blocks with the specified chain.
func (d *Disk) WriteChain(blocks []database.BlockData) error {
	if err := d.Reset(); err != nil {
		return err
	}

	for _, blockData := range blocks {
		if err := d.Write(blockData); err != nil {
			return fmt.Errorf("write block %d: %w", blockData.Header.Number, err)
		}
	}

	return nil
}

// GetBlock searches the chain on disk to locate and return the contents of
// the specified block by number.
func (d *Disk) GetBlock(num uint64) (database.BlockData, error) {
	f, err := os.Open(d.getPath(num))
	if err != nil {
		return database.BlockData{}, err
	}
	defer f.Close()

	var blockData database.BlockData
	if err := json.NewDecoder(f).Decode(&blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decode block %d: %w", num, err)
	}

	return blockData, nil
}

// ReadChain returns every stored block starting with the genesis block.
func (d *Disk) ReadChain() ([]database.BlockData, error) {
	var blocks []database.BlockData

	iter := d.ForEach()
	for {
		blockData, err := iter.Next()
		if err != nil {
			if errors.Is(err, ErrEndOfChain) {
				return blocks, nil
			}
			return nil, err
		}

		blocks = append(blocks, blockData)
	}
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block.
func (d *Disk) ForEach() *DiskIterator {
	return &DiskIterator{disk: d}
}

// Reset will clear out the blocks stored on disk.
func (d *Disk) Reset() error {
	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		if err := os.Remove(filepath.Join(d.dbPath, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return filepath.Join(d.dbPath, name+".json")
}

// =============================================================================

// DiskIterator represents the iteration implementation for walking
// through and reading blocks on disk.
type DiskIterator struct {
	disk    *Disk  // Access to the storage API.
	current uint64 // Block number read by the next call.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk. ErrEndOfChain is returned once
// no block with the next number exists.
func (di *DiskIterator) Next() (database.BlockData, error) {
	if di.eoc {
		return database.BlockData{}, ErrEndOfChain
	}

	blockData, err := di.disk.GetBlock(di.current)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			di.eoc = true
			return database.BlockData{}, ErrEndOfChain
		}
		return database.BlockData{}, err
	}

	di.current++

	return blockData, nil
}

// Done returns the end of chain value.
func (di *DiskIterator) Done() bool {
	return di.eoc
}
