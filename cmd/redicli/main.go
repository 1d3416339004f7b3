// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Command redicli is a standalone demonstration harness for the
// command surface: a single calendar's worth of state, backed
// optionally by a flat file, driven from argv instead of a host
// key-value store's command dispatch.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redical-go/redical/command"
	"github.com/redical-go/redical/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "redicli: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "redicli",
		Short:        "Drive a single redical calendar from the command line",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("store", "", "Path to a persisted calendar file (loaded on start, saved after each command)")
	cmd.PersistentFlags().String("calendar", "default", "Calendar UID to operate on")

	cmd.AddCommand(
		newCalendarGetCmd(),
		newCalendarSetCmd(),
		newEventGetCmd(),
		newEventSetCmd(),
		newEventDelCmd(),
		newEventListCmd(),
		newOverrideSetCmd(),
		newOverrideDelCmd(),
		newOverrideListCmd(),
		newQueryCmd(),
		newIdxDisableCmd(),
		newIdxRebuildCmd(),
	)

	return cmd
}

// session bundles a loaded Store with the path it came from, so a
// command can load, mutate, and persist in one round trip without the
// host-side keyspace this harness stands in for.
type session struct {
	store     *command.Store
	storePath string
	calUID    string
}

func openSession(cmd *cobra.Command) (*session, error) {
	storePath, _ := cmd.Flags().GetString("store")
	calUID, _ := cmd.Flags().GetString("calendar")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	s := &session{store: command.NewStore(cfg), storePath: storePath, calUID: calUID}

	if storePath == "" {
		s.store.CalendarSet(calUID)
		return s, nil
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) load() error {
	data, err := os.ReadFile(s.storePath)
	if os.IsNotExist(err) {
		s.store.CalendarSet(s.calUID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading store file: %w", err)
	}

	lines, err := decodeStoreFile(data)
	if err != nil {
		return fmt.Errorf("decoding store file: %w", err)
	}
	if err := s.store.LoadInto(lines, s.calUID); err != nil {
		return fmt.Errorf("loading calendar: %w", err)
	}
	return nil
}

func (s *session) save() error {
	if s.storePath == "" {
		return nil
	}
	lines, err := s.store.Persist(s.calUID)
	if err != nil {
		return fmt.Errorf("persisting calendar: %w", err)
	}
	data, err := encodeStoreFile(lines)
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}
	if err := os.WriteFile(s.storePath, data, 0o600); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	return nil
}

// runWithSession opens a session, runs fn, persists on success, and
// turns any command.Error into a process exit the host's own dispatch
// would otherwise translate into a wire response.
func runWithSession(cmd *cobra.Command, fn func(*session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return s.save()
}

func readBodyLines(cmd *cobra.Command, args []string) ([]string, error) {
	bodyFile, _ := cmd.Flags().GetString("file")
	if bodyFile == "" {
		return args, nil
	}
	data, err := os.ReadFile(bodyFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", bodyFile, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}
