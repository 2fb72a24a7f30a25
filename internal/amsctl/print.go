package amsctl

import (
	"fmt"
	"io"
	"text/tabwriter"

	"amsd/pkg/types"
)

// gateLabel renders the current gate including its sentinel meanings.
func gateLabel(gate int) string {
	switch gate {
	case -1:
		return "none"
	case -2:
		return "bypass"
	}
	return fmt.Sprintf("%d", gate)
}

func printStatus(w io.Writer, s types.StatusResponse) {
	fmt.Fprintf(w, "type:      %s (%s)\n", s.Type, s.Topology)
	fmt.Fprintf(w, "action:    %s", s.Action)
	if s.OperationDetail != "" {
		fmt.Fprintf(w, " (%s)", s.OperationDetail)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "gate:      %s\n", gateLabel(s.CurrentGate))
	fmt.Fprintf(w, "tool:      %s\n", gateLabel(s.CurrentTool))
	fmt.Fprintf(w, "filament:  loaded=%v segment=%s\n", s.FilamentLoaded, s.FilamentSegment)
	if s.ErrorSegment != "" && s.ErrorSegment != "none" {
		fmt.Fprintf(w, "fault at:  %s\n", s.ErrorSegment)
	}
	for _, u := range s.Units {
		fmt.Fprintf(w, "unit %d:    %s gates=%d connected=%v\n",
			u.UnitIndex, u.Name, u.GateCount, u.Connected)
	}
}

func printGates(w io.Writer, gates []types.Gate) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GATE\tSTATUS\tTOOL\tMATERIAL\tCOLOR\tSPOOL")
	for _, g := range gates {
		tool := "-"
		if g.MappedTool >= 0 {
			tool = fmt.Sprintf("T%d", g.MappedTool)
		}
		spool := "-"
		if g.SpoolID > 0 {
			spool = fmt.Sprintf("%d", g.SpoolID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			g.GlobalIndex, g.Status, tool, orDash(g.Material), orDash(g.Color), spool)
	}
	tw.Flush()
}

func printOp(w io.Writer, op types.OpAccepted, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (action: %s)\n", op.Result, op.Action)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
