package record

import (
	"fmt"
	"time"

	"shogichat/pkg/shogi"
)

const ResultKingCapture = "king_capture"

type MoveEntry struct {
	Ply      int32  `parquet:"name=ply, type=INT32"`
	Side     string `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Notation string `parquet:"name=notation, type=BYTE_ARRAY, convertedtype=UTF8"`
	From     string `parquet:"name=from, type=BYTE_ARRAY, convertedtype=UTF8"`
	To       string `parquet:"name=to, type=BYTE_ARRAY, convertedtype=UTF8"`
	Piece    string `parquet:"name=piece, type=BYTE_ARRAY, convertedtype=UTF8"`
	Promote  bool   `parquet:"name=promote, type=BOOLEAN"`
	Drop     bool   `parquet:"name=drop, type=BOOLEAN"`
	Capture  string `parquet:"name=capture, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// GameRecord is the exported form of a finished game. Squares are written
// as two digits, file then rank.
type GameRecord struct {
	GameID     string      `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinishedAt int64       `parquet:"name=finished_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Opponent   string      `parquet:"name=opponent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Winner     string      `parquet:"name=winner, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result     string      `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount  int32       `parquet:"name=move_count, type=INT32"`
	StartSFEN  string      `parquet:"name=start_sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	KIF        string      `parquet:"name=kif, type=BYTE_ARRAY, convertedtype=UTF8"`
	Moves      []MoveEntry `parquet:"name=moves, type=LIST"`
}

// FromState builds the record of st. Games that are not over get an empty
// winner and result.
func FromState(id, opponent string, st shogi.State, finished time.Time) GameRecord {
	rec := GameRecord{
		GameID:     id,
		FinishedAt: finished.UnixMilli(),
		Opponent:   opponent,
		MoveCount:  int32(len(st.Kifu)),
		StartSFEN:  st.Start,
		KIF:        shogi.FormatKIF(st),
	}
	if rec.StartSFEN == "" {
		rec.StartSFEN = shogi.StandardSFEN()
	}
	if winner, over := shogi.IsTerminal(st); over {
		rec.Winner = winner.String()
		rec.Result = ResultKingCapture
	}
	for i, mv := range st.Kifu {
		entry := MoveEntry{
			Ply:      int32(i + 1),
			Side:     mv.Side.String(),
			Notation: mv.Notation,
			To:       squareText(mv.To),
			Piece:    mv.Piece.Letter(),
			Promote:  mv.Promote,
			Drop:     mv.Drop,
		}
		if mv.From != nil {
			entry.From = squareText(*mv.From)
		}
		if mv.Capture != shogi.NoKind {
			entry.Capture = mv.Capture.Letter()
		}
		rec.Moves = append(rec.Moves, entry)
	}
	return rec
}

func squareText(s shogi.Square) string {
	return fmt.Sprintf("%d%d", s.File(), s.Rank())
}
