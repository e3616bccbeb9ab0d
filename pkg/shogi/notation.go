package shogi

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Move is a decoded notation string. It says what was written, not what
// happens on the board; the applier resolves it against a State.
type Move struct {
	To       Square
	Same     bool    // 同: destination is the previous move's destination
	From     *Square // explicit KIF source such as (77)
	Kind     Kind
	Promoted bool // the piece token itself names a promoted kind
	Promote  bool // trailing 成
	Drop     bool // trailing 打
	Token    string
	Notation string
}

const (
	fileDigits = "123456789"
	dropMarker = "打"
	promote    = "成"
	noPromote  = "不成"
	sameSquare = "同"
)

var rankKanji = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九"}

var fullWidthDigits = []string{"１", "２", "３", "４", "５", "６", "７", "８", "９"}

var sourceRe = regexp.MustCompile(`\(([1-9])([1-9])\)$`)

// ParseMove decodes one move such as 7六歩, ７六歩, 3三角成, 5五歩打, 同歩 or
// 7六歩(77). Full-width digits are folded to half-width first.
func ParseMove(notation string) (Move, error) {
	mv := Move{Notation: notation}
	text := strings.TrimSpace(width.Narrow.String(notation))
	text = strings.TrimLeft(text, "▲△☗☖ ")

	var from *Square
	if m := sourceRe.FindStringSubmatch(text); m != nil {
		sq := SquareAt(int(m[1][0]-'0'), int(m[2][0]-'0'))
		from = &sq
		text = strings.TrimSpace(strings.TrimSuffix(text, m[0]))
	}

	if strings.HasPrefix(text, sameSquare) {
		mv.Same = true
		text = strings.TrimLeft(strings.TrimPrefix(text, sameSquare), " 　")
	} else {
		r, size := utf8.DecodeRuneInString(text)
		col, ok := fileIndex(r)
		if !ok {
			return Move{}, &MoveError{Code: CodeNoFile, Notation: notation}
		}
		text = text[size:]
		r, size = utf8.DecodeRuneInString(text)
		row, ok := rankIndex(r)
		if !ok {
			return Move{}, &MoveError{Code: CodeNoRank, Notation: notation}
		}
		text = text[size:]
		mv.To = Square{Col: col, Row: row}
	}

	def, n, ok := lookupPiece(text)
	if !ok {
		return Move{}, &MoveError{Code: CodeUnknownPiece, Notation: notation, Token: text}
	}
	mv.Kind = def.kind
	mv.Promoted = def.promoted
	mv.Token = def.name

	switch strings.TrimSpace(text[n:]) {
	case "":
	case promote:
		mv.Promote = true
	case noPromote:
	case dropMarker:
		mv.Drop = true
	default:
		return Move{}, &MoveError{Code: CodeUnknownPiece, Notation: notation, Token: text}
	}
	if !mv.Drop {
		mv.From = from
	}
	return mv, nil
}

// fileIndex maps a half-width digit to a column; index 0 is file 9.
func fileIndex(r rune) (int, bool) {
	idx := strings.IndexRune(fileDigits, r)
	if idx < 0 {
		return 0, false
	}
	return 8 - idx, true
}

func rankIndex(r rune) (int, bool) {
	for i, k := range rankKanji {
		if string(r) == k {
			return i, true
		}
	}
	return 0, false
}

// Notation writes a board move in the form the parser reads back, with the
// source square in KIF parentheses so that no scan is needed. The
// destination is always explicit; 同 would resolve against whatever move
// lands first. Promotion is refused outside the promotion zone.
func Notation(st State, from, to Square, promotes bool) (string, error) {
	p := st.Board.At(from)
	if p.Empty() {
		return "", fmt.Errorf("no piece at %s", from)
	}
	text := fmt.Sprintf("%d%s%s", to.File(), rankKanji[to.Row], p.Name())
	if promotes {
		if !CanPromote(p, from, to) {
			return "", fmt.Errorf("%s cannot promote moving %s to %s", p.Name(), from, to)
		}
		text += promote
	}
	return fmt.Sprintf("%s(%d%d)", text, from.File(), from.Rank()), nil
}

// DropNotation writes a drop such as 5五歩打.
func DropNotation(kind Kind, to Square) string {
	return fmt.Sprintf("%d%s%s%s", to.File(), rankKanji[to.Row], kind.Name(), dropMarker)
}

