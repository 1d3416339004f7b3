// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCalendarGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar-get",
		Short: "Print the calendar's property lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSession(cmd, func(s *session) error {
				lines, err := s.store.CalendarGet(s.calUID)
				if err != nil {
					return err
				}
				printLines(lines)
				return nil
			})
		},
	}
}

func newCalendarSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar-set",
		Short: "Create the calendar if it does not already exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSession(cmd, func(s *session) error {
				created := s.store.CalendarSet(s.calUID)
				fmt.Println(created)
				return nil
			})
		},
	}
}

func newEventGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-get [event-uid]",
		Short: "Print an event's property lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(s *session) error {
				lines, err := s.store.EventGet(s.calUID, args[0])
				if err != nil {
					return err
				}
				printLines(lines)
				return nil
			})
		},
	}
	return cmd
}

func newEventSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-set [event-uid] [property-line...]",
		Short: "Create or replace an event from property lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBodyLines(cmd, args[1:])
			if err != nil {
				return err
			}
			return runWithSession(cmd, func(s *session) error {
				applied, err := s.store.EventSet(s.calUID, args[0], body)
				if err != nil {
					return err
				}
				fmt.Println(applied)
				return nil
			})
		},
	}
	cmd.Flags().String("file", "", "Read property lines from a file instead of argv")
	return cmd
}

func newEventDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "event-del [event-uid]",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(s *session) error {
				ok, err := s.store.EventDelete(s.calUID, args[0])
				if err != nil {
					return err
				}
				fmt.Println(ok)
				return nil
			})
		},
	}
}

func newEventListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-list",
		Short: "List event UIDs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			offset, count, err := pagingFlags(cmd)
			if err != nil {
				return err
			}
			return runWithSession(cmd, func(s *session) error {
				uids, err := s.store.EventList(s.calUID, offset, count)
				if err != nil {
					return err
				}
				printLines(uids)
				return nil
			})
		},
	}
	addPagingFlags(cmd)
	return cmd
}

func newOverrideSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override-set [event-uid] [occurrence-ts] [property-line...]",
		Short: "Create or replace an override at an occurrence",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBodyLines(cmd, args[2:])
			if err != nil {
				return err
			}
			return runWithSession(cmd, func(s *session) error {
				applied, err := s.store.OverrideSet(s.calUID, args[0], args[1], body)
				if err != nil {
					return err
				}
				fmt.Println(applied)
				return nil
			})
		},
	}
	cmd.Flags().String("file", "", "Read property lines from a file instead of argv")
	return cmd
}

func newOverrideDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "override-del [event-uid] [occurrence-ts]",
		Short: "Delete an override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(s *session) error {
				ok, err := s.store.OverrideDelete(s.calUID, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Println(ok)
				return nil
			})
		},
	}
}

func newOverrideListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override-list [event-uid]",
		Short: "List an event's override occurrence timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, count, err := pagingFlags(cmd)
			if err != nil {
				return err
			}
			return runWithSession(cmd, func(s *session) error {
				occs, err := s.store.OverrideList(s.calUID, args[0], offset, count)
				if err != nil {
					return err
				}
				printLines(occs)
				return nil
			})
		},
	}
	addPagingFlags(cmd)
	return cmd
}

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [query-string]",
		Short: "Run a calendar-query and print matching instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(s *session) error {
				results, err := s.store.CalendarQuery(s.calUID, args[0])
				if err != nil {
					return err
				}
				for _, r := range results {
					if r.DistanceKM != nil {
						fmt.Printf("%s\t%s\t%.3fkm\n", r.Instance.UID, r.Instance.DTStart.Render(), *r.DistanceKM)
					} else {
						fmt.Printf("%s\t%s\n", r.Instance.UID, r.Instance.DTStart.Render())
					}
				}
				return nil
			})
		},
	}
}

func newIdxDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "idx-disable",
		Short: "Disable the calendar's indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSession(cmd, func(s *session) error {
				disabled, err := s.store.IdxDisable(s.calUID)
				if err != nil {
					return err
				}
				fmt.Println(disabled)
				return nil
			})
		},
	}
}

func newIdxRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "idx-rebuild",
		Short: "Rebuild the calendar's indexes from its events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSession(cmd, func(s *session) error {
				return s.store.IdxRebuild(s.calUID)
			})
		},
	}
}

func addPagingFlags(cmd *cobra.Command) {
	cmd.Flags().Int("offset", 0, "Skip this many results")
	cmd.Flags().Int("count", -1, "Maximum number of results (-1 for unlimited)")
}

func pagingFlags(cmd *cobra.Command) (offset, count int, err error) {
	offset, err = cmd.Flags().GetInt("offset")
	if err != nil {
		return 0, 0, err
	}
	count, err = cmd.Flags().GetInt("count")
	if err != nil {
		return 0, 0, err
	}
	return offset, count, nil
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}
