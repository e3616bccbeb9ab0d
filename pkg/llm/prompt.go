package llm

import (
	"fmt"
	"strings"

	"shogichat/pkg/shogi"
)

// HistoryLen is how many log entries the model sees.
const HistoryLen = 5

const systemPrompt = `あなたは将棋AIです。後手（小文字の駒）を担当しています。
盤面表記:
- 大文字(K,R,B,G,S,N,L,P)は先手（相手）の駒
- 小文字(k,r,b,g,s,n,l,p)はあなた（後手）の駒
- "."は空きマス
- +は成り駒
- 列は右から1-9、段は上から一-九
- 持駒は「先手の持駒」「後手の持駒」に並びます

駒の略称:
K/k=王/玉, R/r=飛, B/b=角, G/g=金, S/s=銀, N/n=桂, L/l=香, P/p=歩
+R/+r=龍, +B/+b=馬

あなたの指し手を「7六歩」のような形式で1手だけ返答してください。
成る場合は「3三角成」、打つ場合は「5五歩打」と書いてください。
必ず合法手を指してください。簡潔に1手だけ回答してください。`

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Messages builds the system and user messages asking side for a move.
func Messages(st shogi.State, side shogi.Side) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: BoardPrompt(st, side) + "\n\nあなたの番です。次の一手を指してください。"},
	}
}

// BoardPrompt is the compact board render followed by which side the model
// plays and the most recent moves.
func BoardPrompt(st shogi.State, side shogi.Side) string {
	var b strings.Builder
	b.WriteString(shogi.Render(st, shogi.FormatPrompt))
	fmt.Fprintf(&b, "\nあなたは%sです。", side.Name())

	if n := len(st.Log); n > 0 {
		recent := st.Log[max(0, n-HistoryLen):]
		b.WriteString("\n\n直近の棋譜:\n" + strings.Join(recent, "\n"))
	}
	return b.String()
}
