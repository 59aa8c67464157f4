package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/scheduler"
	"github.com/wricardo/mcp-training/game2048/game/service"
	"github.com/wricardo/mcp-training/game2048/game/session"
)

const cellWidth = 6

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nCreated: %s\nLast access: %s\n\n",
		info.ID, info.ConfigName,
		info.CreatedAt.Format("2006-01-02 15:04:05"),
		info.LastAccessedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(formatGameState(info.State, nil))
	return b.String()
}

// formatGameState renders the board as a grid. possible may be nil, in which
// case the moves are derived from the snapshot.
func formatGameState(snap *session.Snapshot, possible []string) string {
	if snap == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d | Moves: %d | Max tile: %d\n\n", snap.Score, snap.Moves, snap.Board.MaxTile())
	b.WriteString(formatGrid(snap.Grid))

	switch {
	case snap.Terminal:
		b.WriteString("\nGAME OVER: no tile can move\n")
	case snap.Won:
		b.WriteString("\nWIN: the win tile is on the board, play continues\n")
	}

	if !snap.Terminal {
		if possible == nil {
			for _, d := range snap.PossibleMoves() {
				possible = append(possible, d.String())
			}
		}
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(possible, ", "))
	}
	return b.String()
}

func formatGrid(grid [engine.Size][engine.Size]int) string {
	border := "+" + strings.Repeat(strings.Repeat("-", cellWidth)+"+", engine.Size) + "\n"

	var b strings.Builder
	b.WriteString(border)
	for _, row := range grid {
		b.WriteString("|")
		for _, v := range row {
			if v == 0 {
				fmt.Fprintf(&b, "%*s|", cellWidth, "")
				continue
			}
			fmt.Fprintf(&b, "%*d |", cellWidth-1, v)
		}
		b.WriteString("\n")
		b.WriteString(border)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	b.WriteString(result.Message)
	b.WriteString("\n")
	if result.Decision == scheduler.Rejected || result.Decision == scheduler.Unchanged {
		b.WriteString("Board unchanged.\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.State, result.PossibleMoves))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s: executed %d of %d requested moves", sessionID, result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	fmt.Fprintf(&b, "\nScore: %d -> %d (+%d)\n", result.StartScore, result.EndScore, result.ScoreDelta)

	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s [%s]\n", result.StoppedOnMove, result.StoppedReason, result.StopReasonCode)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, step := range result.Steps {
			fmt.Fprintf(&b, "%d. %s %s", step.Idx, step.Dir, step.Decision)
			if step.Decision == scheduler.Admitted {
				fmt.Fprintf(&b, " score %d -> %d, merges %d, max %d", step.ScoreBefore, step.ScoreAfter, step.Merges, step.MaxTile)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.State, result.PossibleMoves))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) - Total: %d\n\n", history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		b.WriteString("(no moves)\n")
		return b.String()
	}
	for _, move := range history.Moves {
		fmt.Fprintf(&b, "%d. %s +%d (score %d, merges %d)", move.MoveNumber, move.Direction, move.ScoreDelta, move.Score, move.Merges)
		if move.Spawned != nil {
			fmt.Fprintf(&b, " spawn at (%d,%d)", move.Spawned.Row, move.Spawned.Col)
		}
		b.WriteString("\n")
	}
	return b.String()
}
