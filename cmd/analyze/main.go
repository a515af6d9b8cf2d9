// Command analyze prints quick, human-readable summaries of warehouse levels
// and plain-text puzzles.
//
//	analyze levels --dir configs
//	analyze run --file input.txt --both
//
// "levels" lists every level in a directory with its size, crate count and
// the checksum its move script ends on. "run" plays a puzzle file's moves and
// prints the final grid and GPS checksum, for the narrow layout, the widened
// layout, or both.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/puzzle"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "inspect warehouse levels and puzzles",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "levels",
				Usage: "summarize every level in a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Value: "configs", Usage: "level directory"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return analyzeLevels(out, cmd.String("dir"))
				},
			},
			{
				Name:  "run",
				Usage: "play a plain-text puzzle and print its GPS checksum",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "puzzle file"},
					&cli.BoolFlag{Name: "wide", Usage: "widen the layout before playing"},
					&cli.BoolFlag{Name: "both", Usage: "play narrow and wide layouts"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "print checksums only"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					modes := []bool{cmd.Bool("wide")}
					if cmd.Bool("both") {
						modes = []bool{false, true}
					}
					return runPuzzle(out, cmd.String("file"), modes, cmd.Bool("quiet"))
				},
			},
		},
	}
}

// analyzeLevels prints one row per level in dir.
func analyzeLevels(w io.Writer, dir string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tSIZE\tWIDE\tCRATES\tSTART\tSCRIPT\tFINAL")
	for _, info := range infos {
		final := "-"
		script := "-"
		if info.HasScript {
			stats, checksum, err := playScript(manager, info.ConfigID)
			if err != nil {
				return fmt.Errorf("%s: %w", info.ConfigID, err)
			}
			script = fmt.Sprintf("%d moves/%d blocked", stats.Moves, stats.Blocked)
			final = fmt.Sprint(checksum)
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%t\t%d\t%d\t%s\t%s\n",
			info.ConfigID, info.Rows, info.Cols, info.Wide, info.Crates, info.Checksum, script, final)
	}
	return tw.Flush()
}

func playScript(manager *config.Manager, id string) (engine.RunStats, int, error) {
	level, err := manager.LoadConfig(id)
	if err != nil {
		return engine.RunStats{}, 0, err
	}
	eng, err := engine.NewEngine(level)
	if err != nil {
		return engine.RunStats{}, 0, err
	}
	stats, err := eng.RunScript()
	if err != nil {
		return engine.RunStats{}, 0, err
	}
	return stats, eng.Checksum(), nil
}

// runPuzzle plays the puzzle at path once per entry in modes (true = wide).
func runPuzzle(w io.Writer, path string, modes []bool, quiet bool) error {
	p, err := puzzle.Load(path)
	if err != nil {
		return err
	}

	for _, wide := range modes {
		grid, checksum, err := p.Simulate(wide)
		if err != nil {
			return err
		}

		label := "narrow"
		if wide {
			label = "wide"
		}
		if quiet {
			fmt.Fprintf(w, "%s: %d\n", label, checksum)
			continue
		}
		fmt.Fprintf(w, "=== %s (%d moves) ===\n%s\nGPS checksum: %d\n\n", label, len(p.Moves), grid, checksum)
	}
	return nil
}
