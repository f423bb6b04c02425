package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bakermat/steelconnect-node-status/pkg/types"
)

// Column names of the credentials file.
const (
	ColumnRealm    = "scm"
	ColumnUsername = "username"
	ColumnPassword = "password"
	ColumnOrg      = "org"
)

// LoadRealms reads a credentials file with a scm,username,password[,org]
// header and returns its rows sorted by realm.
func LoadRealms(path string) ([]types.RealmCredentials, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to open credentials file: %w", err)
	}
	defer f.Close()

	realms, err := ParseRealms(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return realms, nil
}

// ParseRealms reads CSV credentials from r. Passwords are kept exactly as
// written; the other columns are trimmed.
func ParseRealms(r io.Reader) ([]types.RealmCredentials, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColumnRealm, ColumnUsername, ColumnPassword} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	raw := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	field := func(record []string, column string) string {
		return strings.TrimSpace(raw(record, column))
	}

	var realms []types.RealmCredentials
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		rc := types.RealmCredentials{
			Realm:    field(record, ColumnRealm),
			Username: field(record, ColumnUsername),
			Password: raw(record, ColumnPassword),
			Org:      field(record, ColumnOrg),
		}
		if rc.Realm == "" {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: empty %s column", line, ColumnRealm)
		}
		realms = append(realms, rc)
	}

	if len(realms) == 0 {
		return nil, ErrNoCredentials
	}

	sort.SliceStable(realms, func(i, j int) bool {
		return realms[i].Realm < realms[j].Realm
	})
	return realms, nil
}
