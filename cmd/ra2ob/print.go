package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ra2ob/layout"
	"ra2ob/snapshot"
)

func printSnapshot(w io.Writer, s *snapshot.GameSnapshot, brief bool) {
	if !s.Valid {
		fmt.Fprintf(w, "waiting for game (generation %d)\n", s.Generation)
		return
	}

	var flags []string
	if s.IsObserverView {
		flags = append(flags, "observer")
	}
	if s.IsPaused {
		flags = append(flags, "paused")
	}
	if s.IsGameOver {
		flags = append(flags, "game over")
	}
	fmt.Fprintf(w, "frame %d  %s  %q  %dx%d  %s\n",
		s.CurrentFrame, s.Version, s.MapName, s.Screen.Width, s.Screen.Height, strings.Join(flags, ", "))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "slot\tplayer\tcountry\tcolor\tcredits\tpower\tkills\tlosses\tbuilt\talive")
	for _, slot := range s.Slots {
		if !slot.Valid {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d/%d\t%d\t%d\t%d\t%d\n",
			slot.Index, slot.Panel.PlayerName, slot.Country, slot.ColorHex(),
			slot.Panel.Balance, slot.Panel.PowerOutput, slot.Panel.PowerDrain,
			slot.Score.Kills, slot.Score.Losses, slot.Score.Built, slot.Score.Alive)
	}
	tw.Flush()

	if brief {
		return
	}

	for _, slot := range s.Slots {
		if !slot.Valid {
			continue
		}
		fmt.Fprintf(w, "\n[%d] %s\n", slot.Index, slot.Panel.PlayerName)
		for _, p := range slot.Production {
			fmt.Fprintf(w, "  %-9s %s x%d  %d/%d  %s\n", p.Factory, p.ItemName, p.QueuedCount, p.Progress, layout.ProductionMax, p.Status)
		}
		for _, t := range slot.Superweapons {
			fmt.Fprintf(w, "  %-9s %s  %d/%d  %s\n", "super", t.Name, t.FramesLeft, t.TotalDuration, t.Status)
		}
		var units []string
		for _, u := range slot.Units {
			if u.Visible && u.Count > 0 {
				units = append(units, fmt.Sprintf("%s %d", u.FieldName, u.Count))
			}
		}
		if len(units) > 0 {
			fmt.Fprintf(w, "  units     %s\n", strings.Join(units, ", "))
		}
	}
	fmt.Fprintln(w)
}
