// Command homestage-repl is an interactive debug console for the timeline
// core: place and transform items, scrub history, fork and merge branches,
// and inspect reconstructed states without a UI in front of the store.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	platformcmd "github.com/louisbranch/homestage/internal/platform/cmd"
	"github.com/louisbranch/homestage/internal/platform/config"
	"github.com/louisbranch/homestage/internal/scene"
	"github.com/louisbranch/homestage/internal/scene/event"
	"github.com/louisbranch/homestage/internal/scene/merge"
	"github.com/louisbranch/homestage/internal/session"
	"github.com/louisbranch/homestage/internal/telemetry"
	"github.com/louisbranch/homestage/internal/timeline"
)

type replConfig struct {
	SceneID          string `env:"HOMESTAGE_SCENE_ID" envDefault:"scene"`
	SnapshotInterval int    `env:"HOMESTAGE_SNAPSHOT_INTERVAL" envDefault:"50"`
	LogLevel         string `env:"HOMESTAGE_LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg replConfig
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	fs := flag.NewFlagSet("homestage-repl", flag.ExitOnError)
	fs.StringVar(&cfg.SceneID, "scene", cfg.SceneID, "scene id for the root branch")
	fs.IntVar(&cfg.SnapshotInterval, "snapshot-interval", cfg.SnapshotInterval, "events between replay snapshots")
	if err := platformcmd.ParseArgs(fs, os.Args[1:]); err != nil {
		config.Exitf("parse args: %v", err)
	}

	err := platformcmd.RunWithTelemetry(context.Background(), "homestage-repl", platformcmd.RunOptions{}, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
	if err != nil {
		config.Exitf("homestage-repl: %v", err)
	}
}

func run(ctx context.Context, cfg replConfig) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))

	store, err := session.NewStore(cfg.SceneID, session.Options{
		Logger:    logger,
		Telemetry: telemetry.NewEmitter(telemetry.NewMemory()),
		Timeline: timeline.Options{
			SnapshotInterval: cfg.SnapshotInterval,
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("homestage timeline repl, scene %q. Type 'help' for commands.\n", cfg.SceneID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := dispatch(ctx, store, fields); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func dispatch(ctx context.Context, store *session.Store, fields []string) error {
	command, args := fields[0], fields[1:]
	switch command {
	case "help":
		printHelp()
		return nil
	case "place":
		return place(ctx, store, args)
	case "move":
		return transform(ctx, store, args, func(id string, v scene.Vec3) event.Event {
			return event.ItemMoved{ItemID: id, Position: v}
		})
	case "rotate":
		return transform(ctx, store, args, func(id string, v scene.Vec3) event.Event {
			return event.ItemRotated{ItemID: id, Rotation: v}
		})
	case "scale":
		return transform(ctx, store, args, func(id string, v scene.Vec3) event.Event {
			return event.ItemScaled{ItemID: id, Scale: v}
		})
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("usage: remove <item-id>")
		}
		_, err := store.Append(ctx, event.ItemRemoved{ItemID: args[0]})
		return err
	case "seek":
		if len(args) != 1 {
			return fmt.Errorf("usage: seek <index>")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("index must be an integer: %w", err)
		}
		fmt.Printf("cursor at %d\n", store.Seek(ctx, index))
		return nil
	case "fork":
		if len(args) != 1 {
			return fmt.Errorf("usage: fork <name>")
		}
		branchID, err := store.Fork(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("forked branch %s\n", branchID)
		return nil
	case "switch":
		if len(args) != 1 {
			return fmt.Errorf("usage: switch <branch-id>")
		}
		return store.Switch(ctx, args[0])
	case "branches":
		for _, branch := range store.Branches() {
			fmt.Printf("%s  %-12s parent=%s fork=%d events=%d\n",
				branch.ID, branch.Name, branch.ParentID, branch.ForkIndex, len(branch.Events))
		}
		return nil
	case "markers":
		for _, marker := range store.Markers() {
			fmt.Printf("%3d  seq=%-4d %s\n", marker.Index, marker.Seq, marker.Category)
		}
		return nil
	case "show":
		printState(store.Current(ctx))
		return nil
	case "diff":
		if len(args) != 2 {
			return fmt.Errorf("usage: diff <branch-a> <branch-b>")
		}
		computed, err := store.DiffBranches(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		for _, entry := range computed.Changed() {
			if entry.Displacement != nil {
				fmt.Printf("%-10s %s  displacement=%v\n", entry.Status, entry.ItemID, *entry.Displacement)
				continue
			}
			fmt.Printf("%-10s %s\n", entry.Status, entry.ItemID)
		}
		fmt.Printf("added=%d removed=%d moved=%d modified=%d unchanged=%d\n",
			computed.Added, computed.Removed, computed.Moved, computed.Modified, computed.Unchanged)
		return nil
	case "merge":
		if len(args) != 2 {
			return fmt.Errorf("usage: merge <branch-a> <branch-b>")
		}
		result, err := store.MergeBranches(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printMerge(result)
		return nil
	case "resolve":
		if len(args) != 2 {
			return fmt.Errorf("usage: resolve <item-id> <use-a|use-b|use-base|merge-displacements>")
		}
		result, err := store.ResolveConflict(ctx, args[0], merge.Resolution(args[1]))
		if err != nil {
			return err
		}
		printMerge(result)
		return nil
	default:
		return fmt.Errorf("unknown command %q, type 'help'", command)
	}
}

func place(ctx context.Context, store *session.Store, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("usage: place <item-id> <furniture-type> <x> <y> <z>")
	}
	position, err := parseVec(args[2:5])
	if err != nil {
		return err
	}
	_, err = store.Append(ctx, event.ItemPlaced{Item: scene.Item{
		ID:            args[0],
		FurnitureType: args[1],
		Position:      position,
	}})
	return err
}

func transform(ctx context.Context, store *session.Store, args []string, build func(string, scene.Vec3) event.Event) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: <command> <item-id> <x> <y> <z>")
	}
	vec, err := parseVec(args[1:4])
	if err != nil {
		return err
	}
	_, err = store.Append(ctx, build(args[0], vec))
	return err
}

func parseVec(args []string) (scene.Vec3, error) {
	var vec scene.Vec3
	for i, arg := range args {
		value, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return scene.Vec3{}, fmt.Errorf("component %q must be a number: %w", arg, err)
		}
		vec[i] = value
	}
	return vec, nil
}

func printState(state scene.State) {
	ids := make([]string, 0, len(state.Items))
	for id := range state.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Printf("scene %s version=%d items=%d\n", state.ID, state.Version, len(ids))
	for _, id := range ids {
		item := state.Items[id]
		fmt.Printf("  %-10s %-12s pos=%v rot=%v scale=%v group=%s\n",
			item.ID, item.FurnitureType, item.Position, item.Rotation, item.Scale, item.GroupID)
	}
}

func printMerge(result merge.Result) {
	fmt.Printf("merged version=%d items=%d auto-merged=%d conflicts=%d\n",
		result.Merged.Version, len(result.Merged.Items), len(result.AutoMerged), len(result.Conflicts))
	for _, conflict := range result.Conflicts {
		fmt.Printf("  conflict %-10s kind=%s\n", conflict.ItemID, conflict.Kind)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printHelp() {
	fmt.Print(`commands:
  place <id> <type> <x> <y> <z>   add an item
  move <id> <x> <y> <z>           translate an item
  rotate <id> <x> <y> <z>         rotate an item
  scale <id> <x> <y> <z>          resize an item
  remove <id>                     remove an item
  seek <index>                    scrub the cursor (-1 = before first event)
  fork <name>                     branch at the cursor
  switch <branch-id>              activate another branch
  branches                        list branches
  markers                         list event markers for the active branch
  show                            print the reconstructed current state
  diff <branch-a> <branch-b>      compare two branch tips
  merge <branch-a> <branch-b>     three-way merge two branch tips
  resolve <item-id> <resolution>  settle one merge conflict
  quit
`)
}
