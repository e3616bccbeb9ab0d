package shogi

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every MoveError unwraps to exactly one of them.
var (
	// ErrNotation means the move string could not be decoded.
	ErrNotation = errors.New("notation not recognized")

	// ErrHandEmpty means a drop named a kind the side does not hold.
	ErrHandEmpty = errors.New("not in hand")

	// ErrPieceNotFound means no piece of the side matches the notation.
	ErrPieceNotFound = errors.New("no such piece found")

	// ErrDropOccupied means a drop targeted an occupied square.
	ErrDropOccupied = errors.New("drop destination occupied")
)

type ErrorCode int

const (
	CodeNoFile ErrorCode = iota + 1
	CodeNoRank
	CodeUnknownPiece
	CodeNoPrevious
	CodeHandEmpty
	CodePieceNotFound
	CodeDropOccupied
)

var errorCodeNames = map[ErrorCode]string{
	CodeNoFile:        "no_file",
	CodeNoRank:        "no_rank",
	CodeUnknownPiece:  "unknown_piece",
	CodeNoPrevious:    "no_previous",
	CodeHandEmpty:     "hand_empty",
	CodePieceNotFound: "piece_not_found",
	CodeDropOccupied:  "drop_occupied",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "invalid"
}

// MoveError reports why a notation string was rejected.
type MoveError struct {
	Code     ErrorCode
	Notation string
	Token    string
}

func (e *MoveError) Error() string {
	switch e.Code {
	case CodeNoFile:
		return fmt.Sprintf("invalid destination file in %q", e.Notation)
	case CodeNoRank:
		return fmt.Sprintf("invalid destination rank in %q", e.Notation)
	case CodeUnknownPiece:
		return fmt.Sprintf("unknown piece %q in %q", e.Token, e.Notation)
	case CodeNoPrevious:
		return fmt.Sprintf("same-square move without previous destination in %q", e.Notation)
	case CodeHandEmpty:
		return fmt.Sprintf("%s not in hand", e.Token)
	case CodePieceNotFound:
		return fmt.Sprintf("no movable %s found", e.Token)
	case CodeDropOccupied:
		return fmt.Sprintf("drop destination %s is occupied", e.Token)
	default:
		return fmt.Sprintf("invalid move %q", e.Notation)
	}
}

func (e *MoveError) Unwrap() error {
	switch e.Code {
	case CodeHandEmpty:
		return ErrHandEmpty
	case CodePieceNotFound:
		return ErrPieceNotFound
	case CodeDropOccupied:
		return ErrDropOccupied
	default:
		return ErrNotation
	}
}
