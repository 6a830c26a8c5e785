// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package storage

import (
	"encoding/gob"
	"os"
)

func readStored(path string, sf *storedFile) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // test path
	if err != nil {
		return false, err
	}
	defer f.Close()
	return true, gob.NewDecoder(f).Decode(sf)
}

func writeStored(path string, sf *storedFile) error {
	f, err := os.Create(path) //nolint:gosec // test path
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(sf)
}
