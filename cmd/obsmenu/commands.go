// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/obsmenu/cmd/obsmenu/cli"
	"github.com/bureau-foundation/obsmenu/lib/config"
	"github.com/bureau-foundation/obsmenu/lib/host"
	"github.com/bureau-foundation/obsmenu/lib/menu"
	"github.com/bureau-foundation/obsmenu/lib/obs"
	"github.com/bureau-foundation/obsmenu/lib/process"
	"github.com/bureau-foundation/obsmenu/lib/service"
	"github.com/bureau-foundation/obsmenu/lib/version"
)

// connection holds the flags every socket command shares.
type connection struct {
	socket  string
	service string
	timeout time.Duration
	output  cli.Output
}

func newConnection(out io.Writer) *connection {
	return &connection{output: cli.Output{Writer: out}}
}

func (c *connection) flags(name string, withService bool) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
		flagSet.StringVar(&c.socket, "socket", config.Default().Control.SocketPath, "obsmenud control socket")
		flagSet.DurationVar(&c.timeout, "timeout", 10*time.Second, "how long to wait for the daemon")
		if withService {
			flagSet.StringVar(&c.service, "service", obs.ServiceName, "service to address")
		}
		c.output.AddFlags(flagSet)
		return flagSet
	}
}

func (c *connection) client() *service.ServiceClient {
	return service.NewServiceClient(c.socket)
}

func (c *connection) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *connection) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.output.Text(), 2, 0, 3, ' ', 0)
}

// resolveMenu finds a menu by id or, case-insensitively, by name.
func (c *connection) resolveMenu(ctx context.Context, arg string) (menu.Ref, error) {
	var refs []menu.Ref
	if err := c.client().Call(ctx, host.ActionMenus, map[string]any{"service": c.service}, &refs); err != nil {
		return menu.Ref{}, err
	}
	if id, err := strconv.Atoi(arg); err == nil {
		if index := slices.IndexFunc(refs, func(ref menu.Ref) bool { return ref.ID == id }); index >= 0 {
			return refs[index], nil
		}
	}
	if index := slices.IndexFunc(refs, func(ref menu.Ref) bool { return strings.EqualFold(ref.Name, arg) }); index >= 0 {
		return refs[index], nil
	}

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	if len(names) == 0 {
		return menu.Ref{}, fmt.Errorf("service %q has no menus (is it connected?)", c.service)
	}
	return menu.Ref{}, fmt.Errorf("no menu %q in service %q (have: %s)", arg, c.service, strings.Join(names, ", "))
}

func (c *connection) items(ctx context.Context, ref menu.Ref) (menu.Menu, error) {
	var current menu.Menu
	err := c.client().Call(ctx, host.ActionItems, map[string]any{"service": c.service, "menu": ref.ID}, &current)
	return current, err
}

// root builds the command tree. A nil out writes to stdout and picks
// JSON when stdout is not a terminal.
func root(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "obsmenu",
		Summary: "Browse and drive the menus published by obsmenud",
		Description: "obsmenu talks to the obsmenud control socket. It lists the\n" +
			"services the daemon runs, shows their menus, activates items and\n" +
			"prints user notifications.",
		Subcommands: []*cli.Command{
			servicesCommand(out),
			menusCommand(out),
			itemsCommand(out),
			activateCommand(out),
			refreshCommand(out),
			notificationsCommand(out),
			versionCommand(out),
		},
		Examples: []cli.Example{
			{Description: "Show the scene list", Command: "obsmenu items scenes"},
			{Description: "Switch to the second scene", Command: "obsmenu activate scenes 1"},
		},
	}
}

func servicesCommand(out io.Writer) *cli.Command {
	conn := newConnection(out)
	return &cli.Command{
		Name:    "services",
		Summary: "List the services the daemon runs",
		Flags:   conn.flags("services", false),
		Run: func(args []string) error {
			ctx, cancel := conn.context()
			defer cancel()

			var services []host.ServiceInfo
			if err := conn.client().Call(ctx, host.ActionServices, nil, &services); err != nil {
				return err
			}
			if done, err := conn.output.Emit(services); done {
				return err
			}
			table := conn.table()
			fmt.Fprintln(table, "NAME\tDISPLAY NAME\tAVAILABLE\tREADY")
			for _, info := range services {
				fmt.Fprintf(table, "%s\t%s\t%t\t%t\n", info.Name, info.DisplayName, info.Available, info.Ready)
			}
			return table.Flush()
		},
	}
}

func menusCommand(out io.Writer) *cli.Command {
	conn := newConnection(out)
	return &cli.Command{
		Name:    "menus",
		Aliases: []string{"ls"},
		Summary: "List a service's menus",
		Description: "Lists the menus a service publishes. A service that is not\n" +
			"connected publishes none; the command then exits with status 2.",
		Flags: conn.flags("menus", true),
		Run: func(args []string) error {
			ctx, cancel := conn.context()
			defer cancel()

			var refs []menu.Ref
			if err := conn.client().Call(ctx, host.ActionMenus, map[string]any{"service": conn.service}, &refs); err != nil {
				return err
			}
			if err := printMenus(conn, refs); err != nil {
				return err
			}
			if len(refs) == 0 {
				return process.ExitStatus(2)
			}
			return nil
		},
	}
}

func printMenus(conn *connection, refs []menu.Ref) error {
	if done, err := conn.output.Emit(refs); done {
		return err
	}
	table := conn.table()
	fmt.Fprintln(table, "ID\tNAME")
	for _, ref := range refs {
		fmt.Fprintf(table, "%d\t%s\n", ref.ID, ref.Name)
	}
	return table.Flush()
}

func itemsCommand(out io.Writer) *cli.Command {
	conn := newConnection(out)
	return &cli.Command{
		Name:    "items",
		Aliases: []string{"show"},
		Summary: "Show the items of one menu",
		Usage:   "obsmenu items <menu> [flags]",
		Flags:   conn.flags("items", true),
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: obsmenu items <menu>")
			}
			ctx, cancel := conn.context()
			defer cancel()

			ref, err := conn.resolveMenu(ctx, args[0])
			if err != nil {
				return err
			}
			current, err := conn.items(ctx, ref)
			if err != nil {
				return err
			}
			if done, err := conn.output.Emit(current); done {
				return err
			}
			table := conn.table()
			fmt.Fprintln(table, "INDEX\tLABEL\tACTION")
			for index, item := range current.Items {
				action := item.Action
				if !item.Interactive() {
					action = "-"
				}
				fmt.Fprintf(table, "%d\t%s\t%s\n", index, item.Label, action)
			}
			return table.Flush()
		},
	}
}

func activateCommand(out io.Writer) *cli.Command {
	conn := newConnection(out)
	return &cli.Command{
		Name:    "activate",
		Summary: "Activate a menu item by index or label",
		Usage:   "obsmenu activate <menu> <index|label> [flags]",
		Flags:   conn.flags("activate", true),
		Examples: []cli.Example{
			{Description: "Start or stop the stream", Command: `obsmenu activate outputs "Stream: off"`},
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: obsmenu activate <menu> <index|label>")
			}
			ctx, cancel := conn.context()
			defer cancel()

			ref, err := conn.resolveMenu(ctx, args[0])
			if err != nil {
				return err
			}
			// Resolving by label pins the label too, so the daemon
			// refuses the item if the menu changed in between.
			var label string
			index, err := strconv.Atoi(args[1])
			if err != nil {
				current, itemsErr := conn.items(ctx, ref)
				if itemsErr != nil {
					return itemsErr
				}
				index = slices.IndexFunc(current.Items, func(item menu.Item) bool {
					return strings.EqualFold(item.Label, args[1])
				})
				if index < 0 {
					return fmt.Errorf("no item %q in menu %q", args[1], ref.Name)
				}
				label = current.Items[index].Label
			}
			return conn.client().Call(ctx, host.ActionActivate, map[string]any{
				"service": conn.service,
				"menu":    ref.ID,
				"index":   index,
				"label":   label,
			}, nil)
		},
	}
}

func refreshCommand(out io.Writer) *cli.Command {
	conn := newConnection(out)
	return &cli.Command{
		Name:    "refresh",
		Summary: "Ask a service to re-read its remote state",
		Flags:   conn.flags("refresh", true),
		Run: func(args []string) error {
			ctx, cancel := conn.context()
			defer cancel()
			return conn.client().Call(ctx, host.ActionRefresh, map[string]any{"service": conn.service}, nil)
		},
	}
}

func notificationsCommand(out io.Writer) *cli.Command {
	conn := newConnection(out)
	var after uint64
	var follow bool
	var interval time.Duration
	baseFlags := conn.flags("notifications", true)

	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"log"},
		Summary: "Print recent user notifications",
		Flags: func() *pflag.FlagSet {
			flagSet := baseFlags()
			flagSet.Uint64Var(&after, "after", 0, "only notifications with a greater sequence number")
			flagSet.BoolVarP(&follow, "follow", "f", false, "keep printing new notifications until interrupted")
			flagSet.DurationVar(&interval, "interval", time.Second, "poll interval with --follow")
			return flagSet
		},
		Run: func(args []string) error {
			if !follow {
				ctx, cancel := conn.context()
				defer cancel()
				_, err := printNotifications(ctx, conn, after)
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := cli.NewCommandLogger(slog.LevelInfo).With("command", "notifications")
			for {
				callCtx, cancel := context.WithTimeout(ctx, conn.timeout)
				last, err := printNotifications(callCtx, conn, after)
				cancel()
				var serviceErr *service.ServiceError
				switch {
				case err == nil || ctx.Err() != nil:
				case errors.As(err, &serviceErr) && serviceErr.NotFound():
					return err
				case errors.Is(err, service.ErrNotRunning):
					logger.Warn("waiting for obsmenud", "socket", conn.socket)
				default:
					logger.Warn("polling notifications", "error", err)
				}
				after = max(after, last)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(interval):
				}
			}
		},
	}
}

// printNotifications prints notifications after seq and returns the
// highest sequence number printed.
func printNotifications(ctx context.Context, conn *connection, after uint64) (uint64, error) {
	var notifications []host.Notification
	err := conn.client().Call(ctx, host.ActionNotifications, map[string]any{
		"service": conn.service,
		"after":   after,
	}, &notifications)
	if err != nil {
		return after, err
	}
	last := after
	for _, notification := range notifications {
		last = max(last, notification.Seq)
	}
	if done, err := conn.output.Emit(notifications); done {
		return last, err
	}
	for _, notification := range notifications {
		fmt.Fprintf(conn.output.Text(), "%s  %s\n", notification.Time.Local().Format(time.TimeOnly), notification.Message)
	}
	return last, nil
}

func versionCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print the build version",
		Run: func(args []string) error {
			writer := out
			if writer == nil {
				writer = os.Stdout
			}
			_, err := fmt.Fprintln(writer, version.Full())
			return err
		},
	}
}
