package config

import (
	"errors"
	"fmt"

	"github.com/bakermat/steelconnect-node-status/pkg/types"
)

// ErrNoCredentials is returned when a batch file holds no realm rows.
var ErrNoCredentials = errors.New("no realm credentials found")

// Options are the values given on the command line. Empty fields are
// filled in by Resolve.
type Options struct {
	Realm        string
	Organisation string
	Username     string
	Password     string
	File         string
}

// Resolve returns the realms to query. With a credentials file the rows of
// the file are used, sorted by realm. Otherwise a single realm is built from
// opts, asking prompter for every missing value.
func Resolve(opts Options, prompter Prompter) ([]types.RealmCredentials, error) {
	if opts.File != "" {
		realms, err := LoadRealms(opts.File)
		if err != nil {
			return nil, err
		}
		for i := range realms {
			if realms[i].Org != "" {
				continue
			}
			org, err := valueOrPrompt(opts.Organisation, func() (string, error) {
				return prompter.Prompt(fmt.Sprintf("Enter organisation for %s: ", realms[i].Realm))
			})
			if err != nil {
				return nil, err
			}
			realms[i].Org = org
		}
		return realms, nil
	}

	var (
		rc  types.RealmCredentials
		err error
	)
	if rc.Realm, err = valueOrPrompt(opts.Realm, func() (string, error) {
		return prompter.Prompt("Enter SCM realm (e.g. mydemo.riverbed.cc): ")
	}); err != nil {
		return nil, err
	}
	if rc.Org, err = valueOrPrompt(opts.Organisation, func() (string, error) {
		return prompter.Prompt("Enter organisation: ")
	}); err != nil {
		return nil, err
	}
	if rc.Username, err = valueOrPrompt(opts.Username, func() (string, error) {
		return prompter.Prompt("Enter SCM username: ")
	}); err != nil {
		return nil, err
	}
	if rc.Password, err = valueOrPrompt(opts.Password, func() (string, error) {
		return prompter.PromptSecret(fmt.Sprintf("Enter SCM password for %s:", rc.Username))
	}); err != nil {
		return nil, err
	}
	return []types.RealmCredentials{rc}, nil
}

// valueOrPrompt returns value, or asks until a non-empty answer is given.
func valueOrPrompt(value string, ask func() (string, error)) (string, error) {
	for value == "" {
		var err error
		value, err = ask()
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}
	return value, nil
}
