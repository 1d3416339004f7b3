// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import "gopkg.in/yaml.v3"

// storeFile is the on-disk shape of a --store file: the §6.4 property
// lines Persist/Load already round-trip, carried as a YAML sequence so
// the file stays diffable and editable by hand.
type storeFile struct {
	Lines []string `yaml:"lines"`
}

func encodeStoreFile(lines []string) ([]byte, error) {
	return yaml.Marshal(storeFile{Lines: lines})
}

func decodeStoreFile(data []byte) ([]string, error) {
	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Lines, nil
}
