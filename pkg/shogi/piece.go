package shogi

import "strings"

// Side identifies a player. Sente is the human (uppercase letters, starts on
// rows 6-8); Gote is the model (lowercase letters, starts on rows 0-2).
type Side int

const (
	Sente Side = iota
	Gote
)

func (s Side) Opponent() Side {
	if s == Sente {
		return Gote
	}
	return Sente
}

// Label is the actor name used in the move log.
func (s Side) Label() string {
	if s == Sente {
		return "あなた"
	}
	return "AI"
}

// Name is the traditional side name, 先手 or 後手.
func (s Side) Name() string {
	if s == Sente {
		return "先手"
	}
	return "後手"
}

func (s Side) String() string {
	if s == Sente {
		return "sente"
	}
	return "gote"
}

// forward is the row delta of one step toward the opponent.
func (s Side) forward() int {
	if s == Sente {
		return -1
	}
	return 1
}

type Kind int

const (
	NoKind Kind = iota
	King
	Rook
	Bishop
	Gold
	Silver
	Knight
	Lance
	Pawn
)

// Kinds lists every piece kind in hand-display order.
var Kinds = []Kind{King, Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

func (k Kind) Promotable() bool {
	switch k {
	case Rook, Bishop, Silver, Knight, Lance, Pawn:
		return true
	default:
		return false
	}
}

// Name returns the base kanji name. The king is 王; use Piece.Name for the
// side-specific 玉.
func (k Kind) Name() string {
	switch k {
	case King:
		return "王"
	case Rook:
		return "飛"
	case Bishop:
		return "角"
	case Gold:
		return "金"
	case Silver:
		return "銀"
	case Knight:
		return "桂"
	case Lance:
		return "香"
	case Pawn:
		return "歩"
	default:
		return ""
	}
}

// Letter returns the uppercase SFEN letter.
func (k Kind) Letter() string {
	switch k {
	case King:
		return "K"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Gold:
		return "G"
	case Silver:
		return "S"
	case Knight:
		return "N"
	case Lance:
		return "L"
	case Pawn:
		return "P"
	default:
		return ""
	}
}

// KindFromLetter maps an uppercase SFEN letter to its kind.
func KindFromLetter(r rune) (Kind, bool) {
	switch r {
	case 'K':
		return King, true
	case 'R':
		return Rook, true
	case 'B':
		return Bishop, true
	case 'G':
		return Gold, true
	case 'S':
		return Silver, true
	case 'N':
		return Knight, true
	case 'L':
		return Lance, true
	case 'P':
		return Pawn, true
	default:
		return NoKind, false
	}
}

// Piece is a board occupant. The zero value is an empty cell.
type Piece struct {
	Kind     Kind
	Side     Side
	Promoted bool
}

func (p Piece) Empty() bool {
	return p.Kind == NoKind
}

// Demote returns the piece as it enters a hand.
func (p Piece) Demote() Piece {
	p.Promoted = false
	return p
}

// Name is the notation name: 龍, 馬, と, 成銀, 成桂, 成香 for promoted pieces.
func (p Piece) Name() string {
	if p.Promoted {
		switch p.Kind {
		case Rook:
			return "龍"
		case Bishop:
			return "馬"
		case Pawn:
			return "と"
		default:
			return "成" + p.Kind.Name()
		}
	}
	if p.Kind == King && p.Side == Gote {
		return "玉"
	}
	return p.Kind.Name()
}

// Glyph is the single-character name drawn in the boxed board.
func (p Piece) Glyph() string {
	if p.Promoted {
		switch p.Kind {
		case Silver:
			return "全"
		case Knight:
			return "圭"
		case Lance:
			return "杏"
		}
	}
	return p.Name()
}

// Letter is the SFEN token, e.g. "P", "+r".
func (p Piece) Letter() string {
	if p.Empty() {
		return "."
	}
	text := p.Kind.Letter()
	if p.Promoted {
		text = "+" + text
	}
	if p.Side == Gote {
		text = strings.ToLower(text)
	}
	return text
}

type pieceDef struct {
	name     string
	kind     Kind
	promoted bool
}

// pieceDefs is matched by prefix, so two-rune names come first.
var pieceDefs = []pieceDef{
	{name: "成銀", kind: Silver, promoted: true},
	{name: "成桂", kind: Knight, promoted: true},
	{name: "成香", kind: Lance, promoted: true},
	{name: "成歩", kind: Pawn, promoted: true},
	{name: "と", kind: Pawn, promoted: true},
	{name: "全", kind: Silver, promoted: true},
	{name: "圭", kind: Knight, promoted: true},
	{name: "杏", kind: Lance, promoted: true},
	{name: "馬", kind: Bishop, promoted: true},
	{name: "龍", kind: Rook, promoted: true},
	{name: "竜", kind: Rook, promoted: true},
	{name: "王", kind: King},
	{name: "玉", kind: King},
	{name: "飛", kind: Rook},
	{name: "角", kind: Bishop},
	{name: "金", kind: Gold},
	{name: "銀", kind: Silver},
	{name: "桂", kind: Knight},
	{name: "香", kind: Lance},
	{name: "歩", kind: Pawn},
}

// lookupPiece matches the longest piece name at the start of text and returns
// the number of bytes consumed.
func lookupPiece(text string) (pieceDef, int, bool) {
	for _, def := range pieceDefs {
		if strings.HasPrefix(text, def.name) {
			return def, len(def.name), true
		}
	}
	return pieceDef{}, 0, false
}
